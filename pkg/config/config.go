package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/chatproxy"
	ConfigFileName    = "chatproxy.yml"
	OverlayFileName   = ".env"

	DefaultBindAddress      = "0.0.0.0"
	DefaultOpenAIBaseURL    = "https://api.openai.com/v1"
	DefaultOpenAIModel      = "gpt-3.5-turbo"
	DefaultDBConnectTimeout = 10 * time.Second
	DefaultLogLevel         = "info"
	DefaultRateLimitRPS     = 5
	DefaultRateLimitBurst   = 10
	DefaultMaxBodyBytes     = 100 * 1024
)

// Environment keys
const (
	EnvPort             = "PORT"
	EnvMongoDBURI       = "MONGODB_URI"
	EnvOpenAIAPIKey     = "OPENAI_API_KEY"
	EnvBindAddress      = "BIND_ADDRESS"
	EnvMongoDBDatabase  = "MONGODB_DATABASE"
	EnvOpenAIBaseURL    = "OPENAI_BASE_URL"
	EnvOpenAIModel      = "OPENAI_MODEL"
	EnvDBConnectTimeout = "CHATPROXY_DB_CONNECT_TIMEOUT"
	EnvLogLevel         = "CHATPROXY_LOG_LEVEL"
	EnvRateLimitRPS     = "CHATPROXY_RATE_LIMIT_RPS"
	EnvRateLimitBurst   = "CHATPROXY_RATE_LIMIT_BURST"
	EnvMaxBodyBytes     = "CHATPROXY_MAX_BODY_BYTES"
	EnvConfigPath       = "CHATPROXY_CONFIG_PATH"
)

var (
	// ErrConfigurationMissing is returned when a mandatory key is absent.
	ErrConfigurationMissing = errors.New("mandatory configuration missing")
	// ErrInvalidConfiguration is returned when a present value cannot be used.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// MissingError lists the mandatory keys that were not supplied
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfigurationMissing, strings.Join(e.Keys, ", "))
}

func (e *MissingError) Is(target error) bool {
	return target == ErrConfigurationMissing
}

// Config holds the process configuration. It is built once by Load and
// must be treated as read-only afterwards.
type Config struct {
	Port         string
	MongoDBURI   string
	OpenAIAPIKey string

	BindAddress      string
	Database         string
	OpenAIBaseURL    string
	OpenAIModel      string
	DBConnectTimeout time.Duration
	LogLevel         string
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxBodyBytes     int64

	// sources tracks where each value came from
	sources map[string]string

	configFilePath    string
	overlayFilePath   string
	overlayFileExists bool
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// OverlayFile is the env-style overlay file. Defaults to ./.env.
	OverlayFile string
	// ConfigFile is the YAML file. Defaults to $CHATPROXY_CONFIG_PATH/chatproxy.yml.
	ConfigFile string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
}

// fileConfig mirrors the YAML file. Durations are strings so that "10s"
// parses the same way as the environment.
type fileConfig struct {
	BindAddress      string  `yaml:"bind_address"`
	Database         string  `yaml:"database"`
	OpenAIBaseURL    string  `yaml:"openai_base_url"`
	OpenAIModel      string  `yaml:"openai_model"`
	DBConnectTimeout string  `yaml:"db_connect_timeout"`
	LogLevel         string  `yaml:"log_level"`
	RateLimitRPS     float64 `yaml:"rate_limit_rps"`
	RateLimitBurst   int     `yaml:"rate_limit_burst"`
	MaxBodyBytes     int64   `yaml:"max_body_bytes"`
}

// newDefault returns a config with default values
func newDefault() *Config {
	c := &Config{
		BindAddress:      DefaultBindAddress,
		OpenAIBaseURL:    DefaultOpenAIBaseURL,
		OpenAIModel:      DefaultOpenAIModel,
		DBConnectTimeout: DefaultDBConnectTimeout,
		LogLevel:         DefaultLogLevel,
		RateLimitRPS:     DefaultRateLimitRPS,
		RateLimitBurst:   DefaultRateLimitBurst,
		MaxBodyBytes:     DefaultMaxBodyBytes,
		sources:          make(map[string]string),
	}
	for _, name := range attributeNames() {
		c.sources[name] = "default"
	}
	return c
}

// Load builds the configuration from defaults, the YAML file, the overlay
// file and the process environment, in increasing order of precedence.
// The process environment is never modified.
func Load(opts LoadOptions) (*Config, error) {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	config := newDefault()

	config.configFilePath = opts.ConfigFile
	if config.configFilePath == "" {
		configPath, _ := lookup(EnvConfigPath)
		if configPath == "" {
			configPath = DefaultConfigPath
		}
		config.configFilePath = filepath.Join(configPath, ConfigFileName)
	}

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		if err := config.applyFileConfig(&file); err != nil {
			return nil, fmt.Errorf("config file %s: %w", config.configFilePath, err)
		}
	}

	config.overlayFilePath = opts.OverlayFile
	if config.overlayFilePath == "" {
		config.overlayFilePath = OverlayFileName
	}

	overlay := map[string]string{}
	if _, err := os.Stat(config.overlayFilePath); err == nil {
		config.overlayFileExists = true
		overlay, err = godotenv.Read(config.overlayFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to parse overlay file %s: %w", config.overlayFilePath, err)
		}
	}

	// Environment wins over the overlay, which only fills unset keys.
	get := func(key string) (string, string) {
		if val, ok := lookup(key); ok && val != "" {
			return val, "environment"
		}
		if val := overlay[key]; val != "" {
			return val, "overlay"
		}
		return "", ""
	}

	if err := config.applyEnvConfig(get); err != nil {
		return nil, err
	}

	return config, nil
}

func attributeNames() []string {
	return []string{
		"port", "mongodb_uri", "openai_api_key", "bind_address", "database",
		"openai_base_url", "openai_model", "db_connect_timeout", "log_level",
		"rate_limit_rps", "rate_limit_burst", "max_body_bytes",
	}
}

func (c *Config) applyFileConfig(file *fileConfig) error {
	if file.BindAddress != "" {
		c.BindAddress = file.BindAddress
		c.sources["bind_address"] = "file"
	}
	if file.Database != "" {
		c.Database = file.Database
		c.sources["database"] = "file"
	}
	if file.OpenAIBaseURL != "" {
		c.OpenAIBaseURL = file.OpenAIBaseURL
		c.sources["openai_base_url"] = "file"
	}
	if file.OpenAIModel != "" {
		c.OpenAIModel = file.OpenAIModel
		c.sources["openai_model"] = "file"
	}
	if file.DBConnectTimeout != "" {
		d, err := parseTimeout(file.DBConnectTimeout)
		if err != nil {
			return err
		}
		c.DBConnectTimeout = d
		c.sources["db_connect_timeout"] = "file"
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
		c.sources["log_level"] = "file"
	}
	if file.RateLimitRPS != 0 {
		c.RateLimitRPS = file.RateLimitRPS
		c.sources["rate_limit_rps"] = "file"
	}
	if file.RateLimitBurst != 0 {
		c.RateLimitBurst = file.RateLimitBurst
		c.sources["rate_limit_burst"] = "file"
	}
	if file.MaxBodyBytes != 0 {
		c.MaxBodyBytes = file.MaxBodyBytes
		c.sources["max_body_bytes"] = "file"
	}
	return nil
}

func (c *Config) applyEnvConfig(get func(key string) (string, string)) error {
	if val, src := get(EnvPort); val != "" {
		c.Port = strings.TrimSpace(val)
		c.sources["port"] = src
	}
	if val, src := get(EnvMongoDBURI); val != "" {
		c.MongoDBURI = strings.TrimSpace(val)
		c.sources["mongodb_uri"] = src
	}
	if val, src := get(EnvOpenAIAPIKey); val != "" {
		c.OpenAIAPIKey = strings.TrimSpace(val)
		c.sources["openai_api_key"] = src
	}
	if val, src := get(EnvBindAddress); val != "" {
		c.BindAddress = val
		c.sources["bind_address"] = src
	}
	if val, src := get(EnvMongoDBDatabase); val != "" {
		c.Database = val
		c.sources["database"] = src
	}
	if val, src := get(EnvOpenAIBaseURL); val != "" {
		c.OpenAIBaseURL = val
		c.sources["openai_base_url"] = src
	}
	if val, src := get(EnvOpenAIModel); val != "" {
		c.OpenAIModel = val
		c.sources["openai_model"] = src
	}
	if val, src := get(EnvDBConnectTimeout); val != "" {
		d, err := parseTimeout(val)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDBConnectTimeout, err)
		}
		c.DBConnectTimeout = d
		c.sources["db_connect_timeout"] = src
	}
	if val, src := get(EnvLogLevel); val != "" {
		c.LogLevel = val
		c.sources["log_level"] = src
	}
	if val, src := get(EnvRateLimitRPS); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfiguration, EnvRateLimitRPS, val)
		}
		c.RateLimitRPS = f
		c.sources["rate_limit_rps"] = src
	}
	if val, src := get(EnvRateLimitBurst); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfiguration, EnvRateLimitBurst, val)
		}
		c.RateLimitBurst = i
		c.sources["rate_limit_burst"] = src
	}
	if val, src := get(EnvMaxBodyBytes); val != "" {
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil || i <= 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfiguration, EnvMaxBodyBytes, val)
		}
		c.MaxBodyBytes = i
		c.sources["max_body_bytes"] = src
	}
	return nil
}

func parseTimeout(val string) (time.Duration, error) {
	d, err := time.ParseDuration(val)
	if err != nil {
		// Plain integers are seconds
		secs, convErr := strconv.Atoi(val)
		if convErr != nil {
			return 0, fmt.Errorf("%w: bad timeout %q", ErrInvalidConfiguration, val)
		}
		d = time.Duration(secs) * time.Second
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: timeout must be positive, got %q", ErrInvalidConfiguration, val)
	}
	return d, nil
}

// Validate checks that the mandatory keys are present and usable.
// A missing key yields a *MissingError, which matches ErrConfigurationMissing.
func (c *Config) Validate() error {
	var missing []string
	if c.Port == "" {
		missing = append(missing, EnvPort)
	}
	if c.MongoDBURI == "" {
		missing = append(missing, EnvMongoDBURI)
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}

	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %s=%q is not a valid port", ErrInvalidConfiguration, EnvPort, c.Port)
	}
	return nil
}

// ApplyFlags overrides the listen port and bind address from command-line
// flags. Empty values are ignored. Overridden attributes report source "flag".
func (c *Config) ApplyFlags(port, bindAddress string) {
	if c.sources == nil {
		c.sources = make(map[string]string)
	}
	if port != "" {
		c.Port = port
		c.sources["port"] = "flag"
	}
	if bindAddress != "" {
		c.BindAddress = bindAddress
		c.sources["bind_address"] = "flag"
	}
}

// CredentialMissing reports whether the external API key is absent
func (c *Config) CredentialMissing() bool {
	return c.OpenAIAPIKey == ""
}

// Address returns the listen address for the HTTP server
func (c *Config) Address() string {
	return net.JoinHostPort(c.BindAddress, c.Port)
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// OverlayFilePath returns the path of the env-style overlay file
func (c *Config) OverlayFilePath() string {
	return c.overlayFilePath
}

// OverlayFileExists reports whether the overlay file was found on disk at load time
func (c *Config) OverlayFileExists() bool {
	return c.overlayFileExists
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// Attributes returns all configuration attributes with their values and sources.
// Credentials are masked.
func (c *Config) Attributes() []Attribute {
	return []Attribute{
		{Name: "port", Value: c.Port, Source: c.Source("port")},
		{Name: "mongodb_uri", Value: maskURI(c.MongoDBURI), Source: c.Source("mongodb_uri")},
		{Name: "openai_api_key", Value: maskSecret(c.OpenAIAPIKey), Source: c.Source("openai_api_key")},
		{Name: "bind_address", Value: c.BindAddress, Source: c.Source("bind_address")},
		{Name: "database", Value: c.Database, Source: c.Source("database")},
		{Name: "openai_base_url", Value: c.OpenAIBaseURL, Source: c.Source("openai_base_url")},
		{Name: "openai_model", Value: c.OpenAIModel, Source: c.Source("openai_model")},
		{Name: "db_connect_timeout", Value: c.DBConnectTimeout.String(), Source: c.Source("db_connect_timeout")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
		{Name: "rate_limit_rps", Value: strconv.FormatFloat(c.RateLimitRPS, 'f', -1, 64), Source: c.Source("rate_limit_rps")},
		{Name: "rate_limit_burst", Value: strconv.Itoa(c.RateLimitBurst), Source: c.Source("rate_limit_burst")},
		{Name: "max_body_bytes", Value: strconv.FormatInt(c.MaxBodyBytes, 10), Source: c.Source("max_body_bytes")},
	}
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("Overlay file: %s (found: %t)\n\n", c.overlayFilePath, c.overlayFileExists))
	sb.WriteString(fmt.Sprintf("%-24s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-24s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-24s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file":  c.configFilePath,
		"overlay_file": c.overlayFilePath,
		"attributes":   c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:3] + "****" + s[len(s)-4:]
}

// maskURI hides the password component of a connection string.
func maskURI(uri string) string {
	scheme := strings.Index(uri, "://")
	at := strings.LastIndex(uri, "@")
	if scheme < 0 || at < scheme {
		return uri
	}
	creds := uri[scheme+3 : at]
	user, _, hasPassword := strings.Cut(creds, ":")
	if !hasPassword {
		return uri
	}
	return uri[:scheme+3] + user + ":****" + uri[at:]
}
