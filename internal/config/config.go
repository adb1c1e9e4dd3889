package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("mcp-openapi-hub version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Server         ServerConfig     `mapstructure:"server"`
	Logging        LoggingConfig    `mapstructure:"logging"`
	EndpointConfig EndpointConfig   `mapstructure:"endpoint"`
	Documents      []DocumentConfig `mapstructure:"documents"`
	Storage        StorageConfig    `mapstructure:"storage"`
	Admin          AdminConfig      `mapstructure:"admin"`
	Loader         LoaderConfig     `mapstructure:"loader"`
}

// AuthType represents the type of authentication to use
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeAPIKey AuthType = "api_key"
	AuthTypeOAuth2 AuthType = "oauth2"
)

// EndpointConfig applies to every backend call made on behalf of a tool
type EndpointConfig struct {
	AuthType   AuthType          `json:"auth_type" mapstructure:"auth_type"`
	AuthConfig map[string]string `json:"auth_config" mapstructure:"auth_config"`
	Headers    map[string]string `json:"headers" mapstructure:"headers"`
	Timeout    time.Duration     `json:"timeout" mapstructure:"timeout"`
}

// DocumentConfig describes an OpenAPI document loaded at startup
type DocumentConfig struct {
	Name            string `mapstructure:"name"`
	Location        string `mapstructure:"location"`
	OverrideURL     string `mapstructure:"override_url"`
	AdjustmentsFile string `mapstructure:"adjustments_file"`
}

type StorageConfig struct {
	UploadDir string `mapstructure:"upload_dir"`
}

type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type LoaderConfig struct {
	Parallelism int `mapstructure:"parallelism"`
}

type ServerMode string

const (
	ServerModeSSE   ServerMode = "sse"
	ServerModeSTDIO ServerMode = "stdio"
	ServerModeHTTP  ServerMode = "http"
)

type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	Host    string     `mapstructure:"host"`
	Mode    ServerMode `mapstructure:"mode"`
	Name    string     `mapstructure:"name"`
	Version string     `mapstructure:"version"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

// InitFlags initializes command line flags (without parsing)
func InitFlags(flags *pflag.FlagSet) {
	flags.String("mode", "", "Server mode (stdio|sse|http)")
	flags.String("config", "", "Path to the config file")
	flags.StringSlice("document", nil, "OpenAPI document to load, as name=location (repeatable)")
	flags.String("admin-addr", "", "Address of the admin API, enables it when set")
}

func setDefaults() {
	viper.SetDefault("server.mode", string(ServerModeSTDIO))
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.name", "MCP OpenAPI Hub")
	viper.SetDefault("server.version", version)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("endpoint.auth_type", string(AuthTypeNone))
	viper.SetDefault("endpoint.timeout", 30*time.Second)
	viper.SetDefault("storage.upload_dir", "uploads")
	viper.SetDefault("admin.address", ":8081")
	viper.SetDefault("loader.parallelism", 4)
}

// Load reads the configuration from flags, environment and config.yaml.
// The flag set is usually pflag.CommandLine or a cobra command's flags.
func Load(flags *pflag.FlagSet) (*Config, error) {
	viper.Reset() // Ensure clean state
	setDefaults()

	viper.SetEnvPrefix("MCP_OPENAPI_HUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if flags != nil {
		if err := viper.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/mcp-openapi-hub")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Loading additional config files
	if _, err := os.Stat("/config/config.yaml"); err == nil {
		viper.SetConfigFile("/config/config.yaml")
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to merge /config/config.yaml: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if mode := viper.GetString("mode"); mode != "" {
		switch ServerMode(mode) {
		case ServerModeSSE, ServerModeSTDIO, ServerModeHTTP:
			config.Server.Mode = ServerMode(mode)
		default:
			return nil, fmt.Errorf("unsupported server mode: %s", mode)
		}
	}

	if addr := viper.GetString("admin-addr"); addr != "" {
		config.Admin.Enabled = true
		config.Admin.Address = addr
	}

	docs, err := ParseDocumentFlags(viper.GetStringSlice("document"))
	if err != nil {
		return nil, err
	}
	config.Documents = append(config.Documents, docs...)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// ParseDocumentFlags turns name=location pairs into document configs
func ParseDocumentFlags(values []string) ([]DocumentConfig, error) {
	docs := make([]DocumentConfig, 0, len(values))
	for _, value := range values {
		name, location, ok := strings.Cut(value, "=")
		if !ok || name == "" || location == "" {
			return nil, fmt.Errorf("invalid --document value %q, expected name=location", value)
		}
		docs = append(docs, DocumentConfig{Name: name, Location: location})
	}
	return docs, nil
}

// Validate checks the configured documents for missing fields and duplicate names
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Documents))
	for i, doc := range c.Documents {
		if doc.Name == "" {
			return fmt.Errorf("documents[%d]: name is required", i)
		}
		if doc.Location == "" {
			return fmt.Errorf("documents[%d] (%s): location is required", i, doc.Name)
		}
		if _, ok := seen[doc.Name]; ok {
			return fmt.Errorf("documents[%d]: duplicate document name %q", i, doc.Name)
		}
		seen[doc.Name] = struct{}{}
	}
	if c.Loader.Parallelism <= 0 {
		c.Loader.Parallelism = 1
	}
	return nil
}
