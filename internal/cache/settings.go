package cache

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

// Settings holds the user's editor preferences that live alongside the task
// records but are written independently of them.
type Settings struct {
	Subtitle   map[string]any `json:"subtitle,omitempty"`
	Voice      map[string]any `json:"voice,omitempty"`
	Transition map[string]any `json:"transition,omitempty"`
	Filter     map[string]any `json:"filter,omitempty"`
	Clip       map[string]any `json:"clip,omitempty"`
}

// LoadSettings reads settings from path. Missing or malformed files yield
// zero settings.
func LoadSettings(path string) Settings {
	var s Settings
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	if err := json.Unmarshal(data, &s); err != nil {
		log.Printf("settings unreadable, using defaults: %v", err)
		return Settings{}
	}
	return s
}

// SaveSettings writes settings to path atomically.
func SaveSettings(path string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
