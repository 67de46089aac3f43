package config

import (
	"errors"
	"io/fs"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// dotenvFiles are loaded, when present, before the environment is decoded.
// Variables already set in the process environment win.
var dotenvFiles = []string{".env"}

// parseEnv overlays FIT_* environment variables onto config. A missing .env
// file is not an error; a malformed one or a malformed variable panics, the
// same way a broken JSON config does.
func parseEnv(config *Config) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	if err := envdecode.Decode(config); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		panic(err)
	}
}
