// Package config provides configuration management for the harvester.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingBaseURL           = errors.New("upstream.base_url is required")
	ErrMissingCatalogURL        = errors.New("upstream.catalog_url is required")
	ErrMissingIDPlaceholder     = errors.New("upstream url templates must contain {id}")
	ErrMissingOrgPrefix         = errors.New("upstream.org_prefix is required")
	ErrInvalidListingLimit      = errors.New("upstream.listing_limit must be at least 1")
	ErrInvalidMaintainerID      = errors.New("dataset.maintainer_id must be a UUID")
	ErrInvalidOwnerOrgID        = errors.New("dataset.owner_org_id must be a UUID")
	ErrInvalidTagVocabularyID   = errors.New("publisher.tag_vocabulary_id must be a UUID")
	ErrMissingPublisherEndpoint = errors.New("publisher.endpoint or publisher.dry_run_dir is required")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidRateInterval      = errors.New("rate_limit.interval_ms must be non-negative")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidCountryAlias      = errors.New("countries.aliases values must be three-letter codes")
)

// IDPlaceholder is replaced by the upstream entry id in URL templates.
const IDPlaceholder = "{id}"

// Config represents the complete harvester configuration.
type Config struct {
	Publisher  PublisherConfig  `yaml:"publisher"`
	Countries  CountriesConfig  `yaml:"countries"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Dataset    DatasetConfig    `yaml:"dataset"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Logging    LoggingConfig    `yaml:"logging"`
	Retry      RetryPolicy      `yaml:"retry"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

// UpstreamConfig locates the metadata catalog API.
type UpstreamConfig struct {
	BaseURL          string `yaml:"base_url"`
	CatalogURL       string `yaml:"catalog_url"`
	MetadataURL      string `yaml:"metadata_url"`
	AuthURL          string `yaml:"auth_url"`
	DocumentationURL string `yaml:"documentation_url"`
	OrgPrefix        string `yaml:"org_prefix"`
	UserAgent        string `yaml:"user_agent"`
	ListingLimit     int    `yaml:"listing_limit"`
	MaxBodyKb        int    `yaml:"max_body_kb"`
}

// DatasetConfig holds values stamped on every produced dataset.
type DatasetConfig struct {
	MaintainerID    string `yaml:"maintainer_id"`
	OwnerOrgID      string `yaml:"owner_org_id"`
	UpdateFrequency string `yaml:"update_frequency"`
	Subnational     *bool  `yaml:"subnational"`
}

// IsSubnational reports the subnational flag, true unless disabled.
func (d *DatasetConfig) IsSubnational() bool {
	return d.Subnational == nil || *d.Subnational
}

// PublisherConfig configures the downstream catalog.
type PublisherConfig struct {
	TagMappings     map[string]string `yaml:"tag_mappings"`
	Endpoint        string            `yaml:"endpoint"`
	APIKeyEnv       string            `yaml:"api_key_env"`
	TagVocabularyID string            `yaml:"tag_vocabulary_id"`
	UpdatedBy       string            `yaml:"updated_by_script"`
	DryRunDir       string            `yaml:"dry_run_dir"`
}

// APIKey returns the catalog API key read from the configured environment variable.
func (p *PublisherConfig) APIKey() string {
	return os.Getenv(p.APIKeyEnv)
}

// CountriesConfig extends the built-in country table.
type CountriesConfig struct {
	// Aliases maps free-text nation names to ISO3 codes.
	Aliases map[string]string `yaml:"aliases"`
	// Names overrides the canonical name used for title prefixes, keyed by ISO3.
	Names map[string]string `yaml:"names"`
}

// CheckpointConfig locates the progress state file.
type CheckpointConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMb  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// RateLimitConfig spaces out upstream requests.
type RateLimitConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// Interval returns the minimum delay between requests; zero disables limiting.
func (r RateLimitConfig) Interval() time.Duration {
	return time.Duration(r.IntervalMs) * time.Millisecond
}

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialDelayMs:    500,
		MaxDelayMs:        30000,
		BackoffMultiplier: 2.0,
		TimeoutSec:        60,
	}
}

// LoadConfig loads configuration from YAML file.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadEnv loads secrets from dotenv files into the process environment.
// Missing files are ignored; variables already set are not overridden.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if f == "" {
			continue
		}

		if _, err := os.Stat(f); err != nil {
			continue
		}

		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	return nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Upstream.ListingLimit == 0 {
		c.Upstream.ListingLimit = 10000
	}

	if c.Upstream.OrgPrefix == "" {
		c.Upstream.OrgPrefix = "UNHCR"
	}

	if c.Upstream.UserAgent == "" {
		c.Upstream.UserAgent = "microharvest/1.0"
	}

	if c.Upstream.MaxBodyKb == 0 {
		c.Upstream.MaxBodyKb = 32 * 1024
	}

	if c.Dataset.UpdateFrequency == "" {
		c.Dataset.UpdateFrequency = "Never"
	}

	if c.Publisher.APIKeyEnv == "" {
		c.Publisher.APIKeyEnv = "HDX_KEY"
	}

	if c.Publisher.UpdatedBy == "" {
		c.Publisher.UpdatedBy = "microharvest"
	}

	if c.Retry == (RetryPolicy{}) {
		c.Retry = DefaultRetryPolicy()
	}

	if c.Checkpoint.Path == "" {
		c.Checkpoint.Path = "state/progress.yaml"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return ErrMissingBaseURL
	}

	if c.Upstream.CatalogURL == "" {
		return ErrMissingCatalogURL
	}

	templates := map[string]string{
		"metadata_url":      c.Upstream.MetadataURL,
		"auth_url":          c.Upstream.AuthURL,
		"documentation_url": c.Upstream.DocumentationURL,
	}

	for name, tmpl := range templates {
		if !strings.Contains(tmpl, IDPlaceholder) {
			return fmt.Errorf("%w: upstream.%s", ErrMissingIDPlaceholder, name)
		}
	}

	if c.Upstream.OrgPrefix == "" {
		return ErrMissingOrgPrefix
	}

	if c.Upstream.ListingLimit < 1 {
		return ErrInvalidListingLimit
	}

	if _, err := uuid.Parse(c.Dataset.MaintainerID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMaintainerID, err)
	}

	if _, err := uuid.Parse(c.Dataset.OwnerOrgID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOwnerOrgID, err)
	}

	if c.Publisher.TagVocabularyID != "" {
		if _, err := uuid.Parse(c.Publisher.TagVocabularyID); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidTagVocabularyID, err)
		}
	}

	if c.Publisher.Endpoint == "" && c.Publisher.DryRunDir == "" {
		return ErrMissingPublisherEndpoint
	}

	// Validate retry policy
	if c.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.RateLimit.IntervalMs < 0 {
		return ErrInvalidRateInterval
	}

	for name, code := range c.Countries.Aliases {
		if len(strings.TrimSpace(code)) != 3 {
			return fmt.Errorf("%w: %q -> %q", ErrInvalidCountryAlias, name, code)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if rp.MaxDelayMs > 0 && int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// ListingURL returns the full URL of the latest-entries listing.
func (u *UpstreamConfig) ListingURL() string {
	return fmt.Sprintf("%s%slatest?limit=%d", u.BaseURL, u.CatalogURL, u.ListingLimit)
}

// MetadataURLFor returns the metadata document URL of an entry.
func (u *UpstreamConfig) MetadataURLFor(id string) string {
	return u.BaseURL + expand(u.MetadataURL, id)
}

// AuthURLFor returns the gated data access URL of an entry.
func (u *UpstreamConfig) AuthURLFor(id string) string {
	return u.BaseURL + expand(u.AuthURL, id)
}

// DocumentationURLFor returns the PDF codebook URL of an entry.
func (u *UpstreamConfig) DocumentationURLFor(id string) string {
	return u.BaseURL + expand(u.DocumentationURL, id)
}

func expand(tmpl, id string) string {
	return strings.ReplaceAll(tmpl, IDPlaceholder, id)
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Upstream: %s, Prefix: %s, MaxAttempts: %d, DryRun: %t}",
		c.Upstream.BaseURL,
		c.Upstream.OrgPrefix,
		c.Retry.MaxAttempts,
		c.Publisher.DryRunDir != "",
	)
}
