package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Regatta struct {
		ID string `yaml:"id"`
		// RegistrationSource selects the entry-list provider: "portal",
		// "csv" or "manual". Only "portal" triggers a sync at startup.
		RegistrationSource string `yaml:"registration_source"`
	} `yaml:"regatta"`
	Signals struct {
		Device string `yaml:"device"` // signal output; "log" is the only built-in
	} `yaml:"signals"`
	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}
