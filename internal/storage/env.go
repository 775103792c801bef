package storage

import (
	"os"
	"strconv"
	"time"
)

// Environment variables that override the config file.
const (
	EnvToken             = "RAINDROP_TOKEN"
	EnvFolder            = "RAINMD_FOLDER"
	EnvVaultDir          = "RAINMD_VAULT"
	EnvRequestsPerMinute = "RAINMD_REQUESTS_PER_MINUTE"
	EnvRequestDelay      = "RAINMD_REQUEST_DELAY"
	EnvMaxRetries        = "RAINMD_MAX_RETRIES"
	EnvUpdateExisting    = "RAINMD_UPDATE_EXISTING"
)

// ApplyEnv overlays set environment variables onto c. Unparsable values are
// ignored.
func (c *Config) ApplyEnv() {
	c.APIToken = getEnvAsString(EnvToken, c.APIToken)
	c.DefaultFolder = getEnvAsString(EnvFolder, c.DefaultFolder)
	c.VaultDir = getEnvAsString(EnvVaultDir, c.VaultDir)
	c.RequestsPerMinute = getEnvAsInt(EnvRequestsPerMinute, c.RequestsPerMinute)
	c.RequestDelay = Duration(getEnvAsDuration(EnvRequestDelay, c.RequestDelay.Std()))
	c.MaxRetries = getEnvAsInt(EnvMaxRetries, c.MaxRetries)
	c.UpdateExisting = getEnvAsBool(EnvUpdateExisting, c.UpdateExisting)
}

func getEnvAsString(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if result, err := time.ParseDuration(value); err == nil {
			return result
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if result, err := strconv.ParseBool(value); err == nil {
			return result
		}
	}
	return defaultVal
}
