package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`
	Quiz struct {
		QuestionsPerQuiz   int    `yaml:"questionsPerQuiz"`
		PassThreshold      int    `yaml:"passThreshold"`
		TimeLimitMinutes   int    `yaml:"timeLimitMinutes"`
		MaxDifficulty      int    `yaml:"maxDifficulty"`
		RevisionFileLimit  int    `yaml:"revisionFileLimit"`
		EnableGamification *bool  `yaml:"enableGamification"`
		Language           string `yaml:"language"`
		ResourceTTL        string `yaml:"resourceTtl"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path and applies defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Quiz.QuestionsPerQuiz <= 0 {
		c.Quiz.QuestionsPerQuiz = 10
	}
	if c.Quiz.PassThreshold <= 0 {
		c.Quiz.PassThreshold = 70
	}
	if c.Quiz.TimeLimitMinutes <= 0 {
		c.Quiz.TimeLimitMinutes = 30
	}
	if c.Quiz.MaxDifficulty <= 0 {
		c.Quiz.MaxDifficulty = 5
	}
	if c.Quiz.RevisionFileLimit <= 0 {
		c.Quiz.RevisionFileLimit = 3
	}
	if c.Quiz.Language == "" {
		c.Quiz.Language = "en"
	}
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// Gamification reports whether unlock progression is enabled; the default is on.
func (c *Config) Gamification() bool {
	return c.Quiz.EnableGamification == nil || *c.Quiz.EnableGamification
}

// TimeLimit returns the per-quiz time budget.
func (c *Config) TimeLimit() time.Duration {
	return time.Duration(c.Quiz.TimeLimitMinutes) * time.Minute
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
