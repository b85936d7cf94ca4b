// Package config loads process configuration from the environment and the optional bot settings
// file.
package config

import (
	"applybot/bot/models"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	BotToken    string `env:"BOT_TOKEN,required"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	// GuildId scopes command registration; empty registers global commands.
	GuildId                    string        `env:"GUILD_ID"`
	MetricsAddr                string        `env:"METRICS_ADDR"`
	SweepInterval              time.Duration `env:"SWEEP_INTERVAL,default=60s"`
	LogLevel                   string        `env:"LOG_LEVEL,default=info"`
	CleanCommandsAfterShutdown bool          `env:"CLEAN_COMMANDS_AFTER_SHUTDOWN,default=false"`
}

// Load reads the environment. With dotenv set, a .env file in the working directory is loaded
// first and must exist.
func Load(dotenv bool) (Config, error) {
	if dotenv {
		if err := godotenv.Load(); err != nil {
			return Config{}, fmt.Errorf("loading .env file: %w", err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding environment: %w", err)
	}

	if cfg.SweepInterval <= 0 {
		return Config{}, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", cfg.SweepInterval)
	}

	return cfg, nil
}

func (c Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

type Settings struct {
	Prefix           string            `yaml:"prefix"`
	ActivationCode   string            `yaml:"activation_code"`
	EmbedColor       string            `yaml:"embed_color"`
	DefaultQuestions []models.Question `yaml:"default_questions"`
}

func DefaultSettings() Settings {
	return Settings{
		Prefix:         "!",
		ActivationCode: "112233112233",
		EmbedColor:     "#65a2c4",
		DefaultQuestions: []models.Question{
			{Prompt: "Why do you want to apply for this position?", Kind: models.AnswerText},
			{Prompt: "What experience do you have related to this role?", Kind: models.AnswerText},
			{Prompt: "What would you bring to the team?", Kind: models.AnswerText},
			{Prompt: "How many hours per week can you dedicate?", Kind: models.AnswerText},
		},
	}
}

// LoadSettings overlays the YAML file at path on DefaultSettings. An empty path returns the
// defaults.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading settings: %w", err)
	}

	return ParseSettings(raw)
}

func ParseSettings(raw []byte) (Settings, error) {
	settings := DefaultSettings()

	var file Settings
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Settings{}, fmt.Errorf("parsing settings: %w", err)
	}

	if file.Prefix != "" {
		settings.Prefix = file.Prefix
	}
	if file.ActivationCode != "" {
		settings.ActivationCode = file.ActivationCode
	}
	if file.EmbedColor != "" {
		settings.EmbedColor = file.EmbedColor
	}
	if len(file.DefaultQuestions) > 0 {
		for i, q := range file.DefaultQuestions {
			if q.Prompt == "" {
				return Settings{}, fmt.Errorf("default question %d has no prompt", i+1)
			}
			switch q.Kind {
			case "":
				file.DefaultQuestions[i].Kind = models.AnswerText
			case models.AnswerText, models.AnswerImage:
			default:
				return Settings{}, fmt.Errorf("default question %d has unknown kind %q", i+1, q.Kind)
			}
		}
		settings.DefaultQuestions = file.DefaultQuestions
	}

	return settings, nil
}
