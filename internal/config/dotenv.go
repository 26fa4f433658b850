package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Load variables from the given .env file into the environment if it exists
//
// Variables already present in the environment are not overridden.
// Returns whether the file was loaded.
func LoadDotEnvIfPresent(path string) (bool, error) {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	err = godotenv.Load(path)
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return true, nil
}
