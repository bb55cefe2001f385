// Package config provides configuration loading and management for the image API.
//
// Configuration is read from an optional YAML file and then overridden by
// environment variables. The unprefixed variables (APP_ID, API_KEY,
// INSTALLATION_ID, IGNORED_REPOS, PORT) keep the contract of existing
// deployments; every one of them also has an IMAGE_API_ prefixed form which
// takes precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/telemetry"
)

const (
	// StorageTypeFile keeps images and sync state in JSON files
	StorageTypeFile = "file"

	// StorageTypeDatabase keeps images and sync state in PostgreSQL
	StorageTypeDatabase = "database"
)

const (
	// EnvPrefix is the prefix of every environment override
	EnvPrefix = "IMAGE_API"

	DefaultOrganization   = "sdr-enthusiasts"
	DefaultAPIURL         = "https://api.github.com"
	DefaultAPIVersion     = "2022-11-28"
	DefaultRegistryHost   = "ghcr.io"
	DefaultInstallationID = 46970787
	DefaultRequestTimeout = 30 * time.Second
	DefaultSyncInterval   = 60 * time.Minute
	DefaultAddress        = ":3000"
	DefaultStoragePath    = "./data"
	DefaultSSLMode        = "require"
)

var (
	// ErrMissingAppID is returned when no GitHub App id is configured
	ErrMissingAppID = errors.New("github app id is required (set APP_ID)")

	// ErrMissingPrivateKey is returned when no GitHub App private key file is configured
	ErrMissingPrivateKey = errors.New("github app private key file is required (set API_KEY)")
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

type loaderConfig struct {
	path            string
	lookupEnv       func(string) (string, bool)
	skipCredentials bool
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// WithEnvLookup replaces os.LookupEnv as the source of environment overrides
func WithEnvLookup(lookup func(string) (string, bool)) Option {
	return func(cfg *loaderConfig) error {
		if lookup == nil {
			return fmt.Errorf("lookup function is required")
		}
		cfg.lookupEnv = lookup
		return nil
	}
}

// WithoutCredentials skips the GitHub App checks, for commands that only
// touch storage
func WithoutCredentials() Option {
	return func(cfg *loaderConfig) error {
		cfg.skipCredentials = true
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	GitHub    GitHubConfig      `yaml:"github"`
	Sync      SyncConfig        `yaml:"sync"`
	Server    ServerConfig      `yaml:"server"`
	Storage   StorageConfig     `yaml:"storage"`
	Database  *DatabaseConfig   `yaml:"database,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// GitHubConfig describes the upstream organization and how to authenticate against it
type GitHubConfig struct {
	// Organization whose repositories and container packages are mirrored
	Organization string `yaml:"organization,omitempty"`

	// APIURL is the REST API base URL
	APIURL string `yaml:"apiUrl,omitempty"`

	// APIVersion is sent as X-GitHub-Api-Version on every request
	APIVersion string `yaml:"apiVersion,omitempty"`

	// RegistryHost is the container registry used in pull references
	RegistryHost string `yaml:"registryHost,omitempty"`

	// AppID is the GitHub App id used as JWT issuer
	AppID string `yaml:"appId,omitempty"`

	// InstallationID is the installation of the app on the organization
	InstallationID int64 `yaml:"installationId,omitempty"`

	// PrivateKeyFile is the path to the app's PEM encoded private key
	PrivateKeyFile string `yaml:"privateKeyFile,omitempty"`

	// Timeout bounds each upstream request (e.g. "30s")
	Timeout string `yaml:"timeout,omitempty"`
}

// SyncConfig controls the synchronization cycle
type SyncConfig struct {
	// Interval is both the freshness window and the schedule period (e.g. "60m")
	Interval string `yaml:"interval,omitempty"`

	// ForceOnStartup runs one cycle at startup regardless of freshness
	ForceOnStartup *bool `yaml:"forceOnStartup,omitempty"`

	// IgnoredRepositories are repository names never synced
	IgnoredRepositories []string `yaml:"ignoredRepositories,omitempty"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Address string `yaml:"address,omitempty"`
}

// StorageConfig selects where images and sync state live
type StorageConfig struct {
	// Type is either "file" or "database"
	Type string `yaml:"type,omitempty"`

	// Path is the directory of the file backend
	Path string `yaml:"path,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing only the password
	PasswordFile string `yaml:"passwordFile,omitempty"`

	Database string `yaml:"database"`

	// SSLMode is one of disable, require, verify-ca, verify-full
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxConns is the maximum size of the connection pool
	MaxConns int32 `yaml:"maxConns,omitempty"`

	// MinConns is the number of connections kept open when idle
	MinConns int32 `yaml:"minConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`

	// MigrateOnStart applies pending migrations when the server starts
	MigrateOnStart bool `yaml:"migrateOnStart,omitempty"`

	password string
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. IMAGE_API_DATABASE_PASSWORD from the environment
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		data, err := os.ReadFile(filepath.Clean(d.PasswordFile))
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if d.password != "" {
		return d.password, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s_DATABASE_PASSWORD", EnvPrefix,
	)
}

// GetConnectionString builds a PostgreSQL URL. The password is escaped.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = DefaultSSLMode
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String(), nil
}

// GetConnMaxLifetime returns the parsed lifetime, zero when unset
func (d *DatabaseConfig) GetConnMaxLifetime() time.Duration {
	if d.ConnMaxLifetime == "" {
		return 0
	}
	lifetime, err := time.ParseDuration(d.ConnMaxLifetime)
	if err != nil {
		return 0
	}
	return lifetime
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// and the environment, in that order, then validates it.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	var config Config
	if loaderCfg.path != "" {
		data, err := os.ReadFile(loaderCfg.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := config.applyEnv(loaderCfg.lookupEnv); err != nil {
		return nil, err
	}
	config.applyDefaults()

	if err := config.validate(!loaderCfg.skipCredentials); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// envBindings maps config keys to the environment variables that set them,
// highest precedence first.
var envBindings = map[string][]string{
	"github.appId":          {EnvPrefix + "_APP_ID", "APP_ID"},
	"github.privateKeyFile": {EnvPrefix + "_API_KEY", "API_KEY"},
	"github.installationId": {EnvPrefix + "_INSTALLATION_ID", "INSTALLATION_ID"},
	"github.organization":   {EnvPrefix + "_ORGANIZATION"},
	"github.apiUrl":         {EnvPrefix + "_API_URL"},
	"sync.ignored":          {EnvPrefix + "_IGNORED_REPOS", "IGNORED_REPOS"},
	"sync.interval":         {EnvPrefix + "_SYNC_INTERVAL"},
	"server.port":           {EnvPrefix + "_PORT", "PORT"},
	"storage.type":          {EnvPrefix + "_STORAGE_TYPE"},
	"storage.path":          {EnvPrefix + "_STORAGE_PATH"},
	"database.password":     {EnvPrefix + "_DATABASE_PASSWORD"},
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	v := viper.New()
	for key, names := range envBindings {
		for _, name := range names {
			if value, ok := lookup(name); ok && value != "" {
				v.Set(key, value)
				break
			}
		}
	}

	if v.IsSet("github.appId") {
		c.GitHub.AppID = v.GetString("github.appId")
	}
	if v.IsSet("github.privateKeyFile") {
		c.GitHub.PrivateKeyFile = v.GetString("github.privateKeyFile")
	}
	if v.IsSet("github.installationId") {
		id, err := strconv.ParseInt(strings.TrimSpace(v.GetString("github.installationId")), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid installation id: %w", err)
		}
		c.GitHub.InstallationID = id
	}
	if v.IsSet("github.organization") {
		c.GitHub.Organization = v.GetString("github.organization")
	}
	if v.IsSet("github.apiUrl") {
		c.GitHub.APIURL = v.GetString("github.apiUrl")
	}
	if v.IsSet("sync.ignored") {
		c.Sync.IgnoredRepositories = splitList(v.GetString("sync.ignored"))
	}
	if v.IsSet("sync.interval") {
		c.Sync.Interval = v.GetString("sync.interval")
	}
	if v.IsSet("server.port") {
		port := strings.TrimSpace(v.GetString("server.port"))
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return fmt.Errorf("invalid port %q: %w", port, err)
		}
		c.Server.Address = ":" + port
	}
	if v.IsSet("storage.type") {
		c.Storage.Type = v.GetString("storage.type")
	}
	if v.IsSet("storage.path") {
		c.Storage.Path = v.GetString("storage.path")
	}
	if v.IsSet("database.password") && c.Database != nil {
		c.Database.password = v.GetString("database.password")
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *Config) applyDefaults() {
	if c.GitHub.Organization == "" {
		c.GitHub.Organization = DefaultOrganization
	}
	if c.GitHub.APIURL == "" {
		c.GitHub.APIURL = DefaultAPIURL
	}
	if c.GitHub.APIVersion == "" {
		c.GitHub.APIVersion = DefaultAPIVersion
	}
	if c.GitHub.RegistryHost == "" {
		c.GitHub.RegistryHost = DefaultRegistryHost
	}
	if c.GitHub.InstallationID == 0 {
		c.GitHub.InstallationID = DefaultInstallationID
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Storage.Type == "" {
		c.Storage.Type = StorageTypeFile
	}
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultStoragePath
	}
}

func (c *Config) validate(credentials bool) error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if credentials {
		if err := c.GitHub.validateCredentials(); err != nil {
			return err
		}
	}
	if _, err := url.ParseRequestURI(c.GitHub.APIURL); err != nil {
		return fmt.Errorf("github.apiUrl must be a valid URL: %w", err)
	}

	if err := validateDuration("github.timeout", c.GitHub.Timeout); err != nil {
		return err
	}
	if err := validateDuration("sync.interval", c.Sync.Interval); err != nil {
		return err
	}

	switch c.Storage.Type {
	case StorageTypeFile:
	case StorageTypeDatabase:
		if c.Database == nil {
			return fmt.Errorf("database configuration is required when storage.type is %q", StorageTypeDatabase)
		}
		if err := c.Database.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("storage.type must be %q or %q, got %q", StorageTypeFile, StorageTypeDatabase, c.Storage.Type)
	}

	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}
	return nil
}

func (g *GitHubConfig) validateCredentials() error {
	if strings.TrimSpace(g.AppID) == "" {
		return ErrMissingAppID
	}
	if g.PrivateKeyFile == "" {
		return ErrMissingPrivateKey
	}
	if _, err := os.Stat(g.PrivateKeyFile); err != nil {
		return fmt.Errorf("github private key file: %w", err)
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if d.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if d.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if d.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	return validateDuration("database.connMaxLifetime", d.ConnMaxLifetime)
}

func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a valid duration (e.g., '30m', '1h'): %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", field, value)
	}
	return nil
}

// GetTimeout returns the per-request upstream timeout
func (g *GitHubConfig) GetTimeout() time.Duration {
	if d, err := time.ParseDuration(g.Timeout); err == nil && d > 0 {
		return d
	}
	return DefaultRequestTimeout
}

// GetInterval returns the freshness window and schedule period
func (s *SyncConfig) GetInterval() time.Duration {
	if d, err := time.ParseDuration(s.Interval); err == nil && d > 0 {
		return d
	}
	return DefaultSyncInterval
}

// ShouldForceOnStartup reports whether a forced cycle runs at startup, true by default
func (s *SyncConfig) ShouldForceOnStartup() bool {
	return s.ForceOnStartup == nil || *s.ForceOnStartup
}

// GetStorageType returns the configured storage backend
func (c *Config) GetStorageType() string {
	if c.Storage.Type == "" {
		return StorageTypeFile
	}
	return c.Storage.Type
}
