package config

import (
	"os"
	"time"

	"clafootix/internal/app"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        string `yaml:"port"`
		IdleSession string `yaml:"idle_session"`
	} `yaml:"server"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		Issuer    string `yaml:"issuer"`
	} `yaml:"auth"`
	Redis struct {
		Addr      string `yaml:"addr"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		TTL       string `yaml:"ttl"`
		CreditTTL string `yaml:"credit_ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Round struct {
		TTL              string `yaml:"ttl"`
		TimeBudget       int    `yaml:"time_budget"`
		CorrectCap       int    `yaml:"correct_cap"`
		Distractors      int    `yaml:"distractors"`
		TickInterval     string `yaml:"tick_interval"`
		ValidateTimeout  string `yaml:"validate_timeout"`
		ValidateAttempts int    `yaml:"validate_attempts"`
		RetryInterval    string `yaml:"retry_interval"`
		RewardTimeout    string `yaml:"reward_timeout"`
	} `yaml:"round"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns an empty config when the file does not exist.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	return cfg, err
}

// RoundConfig overlays the configured round settings on the defaults.
func (c Config) RoundConfig() app.RoundConfig {
	rc := app.DefaultRoundConfig()
	if c.Round.TimeBudget > 0 {
		rc.TimeBudget = c.Round.TimeBudget
	}
	if c.Round.CorrectCap > 0 {
		rc.CorrectCap = c.Round.CorrectCap
	}
	if c.Round.Distractors > 0 {
		rc.DistractorCount = c.Round.Distractors
	}
	if c.Round.ValidateAttempts > 0 {
		rc.ValidateAttempts = c.Round.ValidateAttempts
	}
	rc.TickInterval = TTLDuration(c.Round.TickInterval, rc.TickInterval)
	rc.ValidateTimeout = TTLDuration(c.Round.ValidateTimeout, rc.ValidateTimeout)
	rc.RetryInterval = TTLDuration(c.Round.RetryInterval, rc.RetryInterval)
	rc.RewardTimeout = TTLDuration(c.Round.RewardTimeout, rc.RewardTimeout)
	return rc
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
