// Package prompts holds the instruction text sent as the system turn of each
// generation request. The text is opaque to the rest of the service.
package prompts

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	Diary        = "diary"
	Review       = "review"
	WeeklyReport = "weekly_report"
)

//go:embed templates/*.txt
var embedded embed.FS

// Set maps a prompt name to its instruction text.
type Set struct {
	byName map[string]string
}

// Load reads the built-in prompts, then overrides any of them with a
// <name>.txt file found in dir. An empty dir means built-ins only.
func Load(dir string) (*Set, error) {
	s := &Set{byName: map[string]string{}}
	for _, name := range []string{Diary, Review, WeeklyReport} {
		raw, err := embedded.ReadFile("templates/" + name + ".txt")
		if err != nil {
			return nil, fmt.Errorf("prompts: built-in %s: %w", name, err)
		}
		s.byName[name] = string(raw)

		if strings.TrimSpace(dir) == "" {
			continue
		}
		override, err := os.ReadFile(filepath.Join(dir, name+".txt"))
		switch {
		case err == nil:
			if strings.TrimSpace(string(override)) == "" {
				return nil, fmt.Errorf("prompts: %s override in %s is empty", name, dir)
			}
			s.byName[name] = string(override)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("prompts: read %s override: %w", name, err)
		}
	}
	return s, nil
}

// Static builds a Set from literal text. Mostly for tests.
func Static(byName map[string]string) *Set {
	cp := make(map[string]string, len(byName))
	for k, v := range byName {
		cp[k] = v
	}
	return &Set{byName: cp}
}

func (s *Set) Get(name string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("prompts: no prompt set")
	}
	text, ok := s.byName[name]
	if !ok {
		return "", fmt.Errorf("prompts: unknown prompt %q", name)
	}
	return text, nil
}
