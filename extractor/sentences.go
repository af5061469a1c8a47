package extractor

import "strings"

const (
	minSentenceLength = 20
	maxSentences      = 50
)

// boilerplateMarkers flag sentences that belong to page chrome rather than
// article prose. Matched case-insensitively as substrings.
var boilerplateMarkers = []string{
	"subscribe",
	"newsletter",
	"follow us",
	"share this",
	"copyright",
	"privacy policy",
}

// filterSentences splits text on sentence boundaries, drops short fragments
// and boilerplate, and caps the result at maxSentences sentences.
func filterSentences(text string) string {
	var kept []string
	for _, sentence := range strings.Split(text, ".") {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) <= minSentenceLength || isBoilerplate(sentence) {
			continue
		}
		kept = append(kept, sentence)
		if len(kept) == maxSentences {
			break
		}
	}
	return strings.Join(kept, ". ")
}

func isBoilerplate(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, marker := range boilerplateMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
