// Package tasks holds the ordered list of units of work shown to a
// participant. The list is fixed at deploy time: loaded from a YAML
// file when one exists, otherwise the compiled-in defaults.
package tasks

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Kind string

const (
	// KindChat is a free-form conversation task.
	KindChat Kind = "chat"
	// KindQuiz is a structured multiple-choice mini-task with its own
	// completion signal.
	KindQuiz Kind = "quiz"
)

type Question struct {
	Text    string   `yaml:"text"`
	Options []string `yaml:"options"`
	Answer  string   `yaml:"answer"`
}

type Task struct {
	Description string     `yaml:"description"`
	Kind        Kind       `yaml:"kind"`
	Questions   []Question `yaml:"questions,omitempty"`
}

type fileFormat struct {
	Tasks []Task `yaml:"tasks"`
}

// Load reads the task list from path. A missing file falls back to the
// built-in defaults; a present but invalid file is an error, since
// silently running the wrong task set would invalidate collected data.
func Load(path string) ([]Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("read tasks file: %w", err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tasks file: %w", err)
	}
	if err := validate(f.Tasks); err != nil {
		return nil, fmt.Errorf("invalid tasks file %q: %w", path, err)
	}
	return f.Tasks, nil
}

func validate(ts []Task) error {
	if len(ts) == 0 {
		return fmt.Errorf("no tasks defined")
	}
	for i := range ts {
		if ts[i].Kind == "" {
			ts[i].Kind = KindChat
		}
		switch ts[i].Kind {
		case KindChat:
			if len(ts[i].Questions) > 0 {
				return fmt.Errorf("task %d: chat task cannot carry questions", i)
			}
		case KindQuiz:
			if len(ts[i].Questions) == 0 {
				return fmt.Errorf("task %d: quiz task needs questions", i)
			}
		default:
			return fmt.Errorf("task %d: unknown kind %q", i, ts[i].Kind)
		}
		if ts[i].Description == "" {
			return fmt.Errorf("task %d: empty description", i)
		}
	}
	return nil
}
