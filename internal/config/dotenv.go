package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads every env file in paths that exists. Variables already
// set, including ones from an earlier file, win.
func LoadDotEnv(paths ...string) error {
	present := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		present = append(present, path)
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}
