package config

import "github.com/joho/godotenv"

// LoadEnv loads variables from a .env file in the working directory.
// Variables already set in the environment win. Callers decide whether a
// missing file (os.IsNotExist) is fatal.
func LoadEnv(filenames ...string) error {
	return godotenv.Load(filenames...)
}
