// Package settings loads process configuration: a JSON file for local
// runs, optionally hydrated with secrets from AWS Secrets Manager in
// deployed environments.
package settings

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config carries the external endpoints the core can be wired to. All
// fields are optional; an empty field disables that integration.
type Config struct {
	DatabaseURL    string `json:"database_url"`
	InfluxAddr     string `json:"influx_addr"`
	InfluxUser     string `json:"influx_user"`
	InfluxPassword string `json:"influx_password"`
	InfluxDatabase string `json:"influx_database"`
	ResultDir      string `json:"result_dir"`
	LogLevel       string `json:"log_level"`
}

// Load reads a JSON config file and applies the log level.
func Load(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	ConfigureLogging(cfg.LogLevel)
	return cfg, nil
}

// ConfigureLogging sets the global zerolog level; the empty string means
// info.
func ConfigureLogging(level string) {
	if level == "" {
		level = "info"
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("level", level).Msg("unknown log level, using info")
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// LoadSecretsIntoEnv pulls a JSON secret from AWS Secrets Manager and
// exports each key as an environment variable, so deployed runs never
// keep credentials in config files.
func LoadSecretsIntoEnv(secretName, region string) error {
	svc := secretsmanager.New(session.New(), aws.NewConfig().WithRegion(region))
	out, err := svc.GetSecretValue(&secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretName),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return fmt.Errorf("fetch secret %s: %w", secretName, err)
	}
	secret := make(map[string]string)
	if err := json.Unmarshal([]byte(aws.StringValue(out.SecretString)), &secret); err != nil {
		return fmt.Errorf("parse secret %s: %w", secretName, err)
	}
	for key, value := range secret {
		os.Setenv(key, value)
		log.Debug().Str("key", key).Msg("set env from secret")
	}
	return nil
}

// FromEnv overlays environment variables onto a config, which lets
// LoadSecretsIntoEnv feed the same fields.
func (c *Config) FromEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.DatabaseURL, "SUTRA_DATABASE_URL")
	set(&c.InfluxAddr, "SUTRA_INFLUX_ADDR")
	set(&c.InfluxUser, "SUTRA_INFLUX_USER")
	set(&c.InfluxPassword, "SUTRA_INFLUX_PASSWORD")
	set(&c.InfluxDatabase, "SUTRA_INFLUX_DATABASE")
}
