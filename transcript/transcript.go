// Package transcript renders processed extracts into the human-readable
// transcript file that accompanies every run.
package transcript

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is one successfully processed article.
type Record struct {
	Title     string
	URL       string
	Published string
	Extract   string
}

var delimiter = strings.Repeat("=", 80)

// Write renders records as readable blocks separated by a visual delimiter.
// The Published line is omitted when the feed carried no date.
func Write(w io.Writer, records []Record) error {
	for _, r := range records {
		if _, err := fmt.Fprintf(w, "Title: %s\n", r.Title); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "URL: %s\n", r.URL); err != nil {
			return err
		}
		if r.Published != "" {
			if _, err := fmt.Fprintf(w, "Published: %s\n", r.Published); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "Extract:\n%s\n%s\n\n", r.Extract, delimiter); err != nil {
			return err
		}
	}
	return nil
}

// Save writes records to a transcript file at path.
func Save(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create transcript file at '%s' with %w", path, err)
	}

	if err := Write(f, records); err != nil {
		f.Close()
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return f.Close()
}
