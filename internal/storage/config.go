package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/nikbrunner/rainmd/internal/model"
	"github.com/nikbrunner/rainmd/internal/naming"
	"github.com/nikbrunner/rainmd/internal/template"
)

// Config holds application configuration.
type Config struct {
	APIToken              string                       `json:"apiToken"`
	VaultDir              string                       `json:"vaultDir" validate:"required"`
	DefaultFolder         string                       `json:"defaultFolder"`
	FileNameTemplate      string                       `json:"fileNameTemplate" validate:"required"`
	BannerFieldName       string                       `json:"bannerFieldName" validate:"required,excludesall=:"`
	TemplateSystemEnabled bool                         `json:"templateSystemEnabled"`
	DefaultTemplate       string                       `json:"defaultTemplate"`
	ContentTypeTemplates  map[model.ContentType]string `json:"contentTypeTemplates" validate:"dive,keys,oneof=link article image video document audio,endkeys"`
	ContentTypeToggles    map[model.ContentType]bool   `json:"contentTypeToggles" validate:"dive,keys,oneof=link article image video document audio,endkeys"`
	DateFormat            string                       `json:"dateFormat" validate:"required"`
	UseTitleForFileName   bool                         `json:"useTitleForFileName"`
	UpdateExisting        bool                         `json:"updateExisting"`
	RequestsPerMinute     int                          `json:"requestsPerMinute" validate:"gte=1,lte=1000"`
	RequestDelay          Duration                     `json:"requestDelay" validate:"gte=0"`
	MaxRetries            int                          `json:"maxRetries" validate:"gte=1,lte=10"`
	RetryDelay            Duration                     `json:"retryDelay" validate:"gte=0"`
	LedgerPath            string                       `json:"ledgerPath"` // empty disables the import ledger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	toggles := make(map[model.ContentType]bool, len(model.ContentTypes))
	for _, t := range model.ContentTypes {
		toggles[t] = true
	}
	ledger, _ := DefaultLedgerPath()

	return Config{
		VaultDir:              ".",
		FileNameTemplate:      naming.DefaultFileNameTemplate,
		BannerFieldName:       "banner",
		TemplateSystemEnabled: true,
		DefaultTemplate:       template.DefaultTemplate,
		ContentTypeTemplates:  template.DefaultTypeTemplates(),
		ContentTypeToggles:    toggles,
		DateFormat:            template.DefaultDateFormat,
		UseTitleForFileName:   true,
		RequestsPerMinute:     60,
		RequestDelay:          Duration(300 * time.Millisecond),
		MaxRetries:            3,
		RetryDelay:            Duration(time.Second),
		LedgerPath:            ledger,
	}
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Templates returns the template set the config selects from.
func (c *Config) Templates() template.Set {
	return template.Set{
		Default: c.DefaultTemplate,
		ByType:  c.ContentTypeTemplates,
		Enabled: c.ContentTypeToggles,
	}
}

// LoadConfig reads config from the JSON file.
// Creates the file with defaults if it doesn't exist. Fields missing from
// the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Non-fatal: return defaults even if save fails
			_ = SaveConfig(path, &config)
			return &config, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &config, nil
}

// Load reads the config file, then .env, then the environment, and
// validates the result.
func Load(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	_ = godotenv.Load()
	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes config to the JSON file.
// Creates the directory if it doesn't exist.
func SaveConfig(path string, config *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// DefaultConfigFilePath returns the default config path: ~/.config/rainmd/config.json
func DefaultConfigFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "rainmd", "config.json"), nil
}
