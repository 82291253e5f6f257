package initializers

import (
	"errors"
	"fmt"
	"io/fs"
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env into the process environment. A missing file is not an error.
func LoadEnv() error {
	log.Println("Loading env file")
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("No .env file, using process environment")
		return nil
	}
	if err != nil {
		return fmt.Errorf("env not loading: %w", err)
	}
	log.Println("Env loaded successfully")
	return nil
}
