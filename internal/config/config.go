// Package config loads server configuration from the environment.
//
// Values are read with Viper using the CASETRACK_ prefix, with a .env file
// (if present) loaded first via godotenv. A DB connection string can be
// given whole (CASETRACK_DB_URL) or assembled from the individual DB_*
// parts.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the settings for the casetrack server.
type Config struct {
	Port  string `mapstructure:"port"`
	DBURL string `mapstructure:"db_url"`
}

// Load reads configuration from the environment, honoring a local .env file
// when one exists. Missing DB settings are not an error here; callers that
// need a database validate with Validate.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("CASETRACK")
	v.AutomaticEnv()
	v.SetDefault("port", "8080")

	cfg := Config{
		Port:  v.GetString("port"),
		DBURL: v.GetString("db_url"),
	}
	if cfg.DBURL == "" {
		cfg.DBURL = fromParts()
	}
	return cfg, nil
}

// Validate checks that the settings needed to reach the database are present.
func (c Config) Validate() error {
	if c.DBURL == "" {
		return fmt.Errorf("database connection not configured: set CASETRACK_DB_URL or the DB_* variables")
	}
	return nil
}

// fromParts assembles a Postgres URL from the legacy DB_* variables, the
// same ones the migration runner understands.
func fromParts() string {
	user := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	if user == "" || password == "" || host == "" || port == "" || name == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
}
