// Package config loads service configuration from a base config.toml, an
// optional per-environment overlay, and SALESBRIDGE_* environment
// variable overrides, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/atlaspest/salesbridge/internal/arcsite"
	"github.com/atlaspest/salesbridge/internal/crm/pipedrive"
	"github.com/atlaspest/salesbridge/internal/crm/zoho"
	"github.com/atlaspest/salesbridge/internal/esign"
	"github.com/atlaspest/salesbridge/internal/fieldservice"
	"github.com/atlaspest/salesbridge/internal/notify"
	"github.com/atlaspest/salesbridge/internal/webhooks"
	"github.com/atlaspest/salesbridge/internal/workflow"
	"github.com/atlaspest/salesbridge/pkg/database"
	"github.com/atlaspest/salesbridge/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvSalesbridgeEnv             = "SALESBRIDGE_ENV"
	EnvSalesbridgeShutdownTimeout = "SALESBRIDGE_SHUTDOWN_TIMEOUT"
	EnvSalesbridgeVersion         = "SALESBRIDGE_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "SALESBRIDGE_DB_HOST",
	Port:            "SALESBRIDGE_DB_PORT",
	Name:            "SALESBRIDGE_DB_NAME",
	User:            "SALESBRIDGE_DB_USER",
	Password:        "SALESBRIDGE_DB_PASSWORD",
	SSLMode:         "SALESBRIDGE_DB_SSL_MODE",
	MaxOpenConns:    "SALESBRIDGE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "SALESBRIDGE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "SALESBRIDGE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "SALESBRIDGE_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "SALESBRIDGE_STORAGE_CONTAINER_NAME",
	ConnectionString: "SALESBRIDGE_STORAGE_CONNECTION_STRING",
}

var zohoEnv = &zoho.Env{
	BaseURL:   "SALESBRIDGE_ZOHO_BASE_URL",
	Principal: "SALESBRIDGE_ZOHO_PRINCIPAL",
}

var pipedriveEnv = &pipedrive.Env{
	BaseURL:  "SALESBRIDGE_PIPEDRIVE_BASE_URL",
	APIToken: "SALESBRIDGE_PIPEDRIVE_API_TOKEN",
}

var arcsiteEnv = &arcsite.Env{
	BaseURL: "SALESBRIDGE_ARCSITE_BASE_URL",
	Token:   "SALESBRIDGE_ARCSITE_TOKEN",
	Owner:   "SALESBRIDGE_ARCSITE_OWNER",
}

var esignEnv = &esign.Env{
	BaseURL:          "SALESBRIDGE_ESIGN_BASE_URL",
	DefaultPrincipal: "SALESBRIDGE_ESIGN_DEFAULT_PRINCIPAL",
}

var fieldserviceEnv = &fieldservice.Env{
	BaseURL:   "SALESBRIDGE_FIELDSERVICE_BASE_URL",
	AuthToken: "SALESBRIDGE_FIELDSERVICE_AUTH_TOKEN",
	AuthKey:   "SALESBRIDGE_FIELDSERVICE_AUTH_KEY",
}

var notifyEnv = &notify.Env{
	Host:     "SALESBRIDGE_SMTP_HOST",
	Port:     "SALESBRIDGE_SMTP_PORT",
	Username: "SALESBRIDGE_SMTP_USERNAME",
	Password: "SALESBRIDGE_SMTP_PASSWORD",
	From:     "SALESBRIDGE_SMTP_FROM",
	Operator: "SALESBRIDGE_ALERT_OPERATOR",
}

var webhooksEnv = &webhooks.Env{
	ZohoSecret:    "SALESBRIDGE_WEBHOOK_ZOHO_SECRET",
	ArcSiteSecret: "SALESBRIDGE_WEBHOOK_ARCSITE_SECRET",
	BasicUsername: "SALESBRIDGE_WEBHOOK_BASIC_USERNAME",
	BasicPassword: "SALESBRIDGE_WEBHOOK_BASIC_PASSWORD",
	QueryToken:    "SALESBRIDGE_WEBHOOK_QUERY_TOKEN",
}

var workflowEnv = &workflow.Env{
	Timezone: "SALESBRIDGE_TIMEZONE",
}

// Config is the root configuration for the salesbridge service.
type Config struct {
	Server          ServerConfig        `toml:"server"`
	Database        database.Config     `toml:"database"`
	Storage         storage.Config      `toml:"storage"`
	API             APIConfig           `toml:"api"`
	Zoho            zoho.Config         `toml:"zoho"`
	Pipedrive       pipedrive.Config    `toml:"pipedrive"`
	ArcSite         arcsite.Config      `toml:"arcsite"`
	ESign           esign.Config        `toml:"esign"`
	FieldService    fieldservice.Config `toml:"fieldservice"`
	Notify          notify.Config       `toml:"notify"`
	Webhooks        webhooks.Config     `toml:"webhooks"`
	Workflow        workflow.Config     `toml:"workflow"`
	ShutdownTimeout string              `toml:"shutdown_timeout"`
	Version         string              `toml:"version"`
}

// Env returns the SALESBRIDGE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvSalesbridgeEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Zoho.Merge(&overlay.Zoho)
	c.Pipedrive.Merge(&overlay.Pipedrive)
	c.ArcSite.Merge(&overlay.ArcSite)
	c.ESign.Merge(&overlay.ESign)
	c.FieldService.Merge(&overlay.FieldService)
	c.Notify.Merge(&overlay.Notify)
	c.Webhooks.Merge(&overlay.Webhooks)
	c.Workflow.Merge(&overlay.Workflow)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Zoho.Finalize(zohoEnv); err != nil {
		return fmt.Errorf("zoho: %w", err)
	}
	if err := c.Pipedrive.Finalize(pipedriveEnv); err != nil {
		return fmt.Errorf("pipedrive: %w", err)
	}
	if err := c.ArcSite.Finalize(arcsiteEnv); err != nil {
		return fmt.Errorf("arcsite: %w", err)
	}
	if err := c.ESign.Finalize(esignEnv); err != nil {
		return fmt.Errorf("esign: %w", err)
	}
	if err := c.FieldService.Finalize(fieldserviceEnv); err != nil {
		return fmt.Errorf("fieldservice: %w", err)
	}
	if err := c.Notify.Finalize(notifyEnv); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if err := c.Webhooks.Finalize(webhooksEnv); err != nil {
		return fmt.Errorf("webhooks: %w", err)
	}
	if err := c.Workflow.Finalize(workflowEnv); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvSalesbridgeShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvSalesbridgeVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvSalesbridgeEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
