// /internal/config/config.go
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken      string        `env:"DISCORD_TOKEN,required"`
	StoragePath       string        `env:"STORAGE_PATH" envDefault:"datastore.json"`
	LogFile           string        `env:"LOG_FILE"`
	ConfirmTimeout    time.Duration `env:"CONFIRM_TIMEOUT" envDefault:"60s"`
	InitSlashCommands bool          `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
}

func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, falling back to system environment variables")
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return &cfg, nil
}
