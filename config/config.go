package config

import (
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/BurntSushi/toml"
)

const baseCfgPath = "feedvoice/config.toml"

// Headers are fixed request headers sent with every feed and article fetch.
type Headers map[string]string

type Config struct {
	OutputDirectory string     `toml:"output_directory"` // Directory for transcript and audio files
	PauseSeconds    int        `toml:"pause_seconds"`    // Pause between processed articles
	Headers         Headers    `toml:"headers"`
	Generation      Generation `toml:"generation"`
	Synthesis       Synthesis  `toml:"synthesis"`
}

// Generation configures the text-generation service and its decoding options.
type Generation struct {
	Endpoint    string  `toml:"endpoint"` // Base URL, e.g. http://localhost:11434
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	TopP        float64 `toml:"top_p"`
	MaxTokens   int     `toml:"max_tokens"`
}

// Synthesis configures the speech-synthesis service and voice parameters.
type Synthesis struct {
	Endpoint   string  `toml:"endpoint"`
	Model      string  `toml:"model"`
	Voice      string  `toml:"voice"`
	Speed      float64 `toml:"speed"`
	LangCode   string  `toml:"lang_code"`
	SampleRate int     `toml:"sample_rate"`
}

func Read(path string) (Config, error) {
	conf := Default()
	dat, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	_, err = toml.Decode(string(dat), &conf)
	if err != nil {
		return conf, fmt.Errorf("failed to decode config at %s with %w", path, err)
	}
	return conf, nil
}

func Write(cfgPath string, cfg Config) error {
	blob, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config with %w", err)
	}
	basePath := path.Dir(cfgPath)
	err = os.MkdirAll(basePath, os.ModePerm)
	if err != nil {
		return fmt.Errorf("failed to create base config directory at '%s' with %w", basePath, err)
	}
	err = os.WriteFile(cfgPath, blob, 0644)
	if err != nil {
		return fmt.Errorf("failed to write into config file at '%s' with %w", cfgPath, err)
	}
	slog.Info("config written", "at", cfgPath)
	return nil
}

func Default() Config {
	return Config{
		OutputDirectory: "./outputs",
		PauseSeconds:    3,
		Headers: Headers{
			"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) " +
				"Chrome/124.0.0.0 Safari/537.36",
			"Accept-Language":           "en-US,en;q=0.9",
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Connection":                "keep-alive",
			"Upgrade-Insecure-Requests": "1",
		},
		Generation: Generation{
			Endpoint:    "http://localhost:11434",
			Model:       "gemma3:12b",
			Temperature: 0.2,
			TopP:        0.9,
			MaxTokens:   500,
		},
		Synthesis: Synthesis{
			Endpoint:   "http://localhost:8000/tts",
			Model:      "prince-canuma/Kokoro-82M",
			Voice:      "bf_emma",
			Speed:      0.8,
			LangCode:   "b",
			SampleRate: 24000,
		},
	}
}

func DefaultPath() string {
	var xdgHome = os.Getenv("XDG_CONFIG_HOME")
	if xdgHome != "" {
		return path.Join(xdgHome, baseCfgPath)
	}

	var home = os.Getenv("HOME")
	if home != "" {
		return path.Join(home, ".config", baseCfgPath)
	}

	panic("unclear where to search for the config file")
}
