package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"resumind/internal/errors"
)

// loadPromptsFromFiles reads prompt override files into the inline
// fields, so consumers only ever look at System and User.
func (c *Config) loadPromptsFromFiles() error {
	prompts := []*PromptConfig{&c.AI.CustomPrompts, &c.AI.Review.CustomPrompts}

	for _, p := range prompts {
		if p.SystemFile != "" && p.System == "" {
			content, err := readPromptFile(p.SystemFile)
			if err != nil {
				return err
			}
			p.System = content
		}
		if p.UserFile != "" && p.User == "" {
			content, err := readPromptFile(p.UserFile)
			if err != nil {
				return err
			}
			p.User = content
		}
	}

	return nil
}

func readPromptFile(path string) (string, error) {
	cleaned := filepath.Clean(path)
	data, err := os.ReadFile(cleaned)
	if err != nil {
		return "", errors.NewConfigError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("failed to read prompt file %s", cleaned), err)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("prompt file %s is empty", cleaned), nil)
	}
	return content, nil
}
