// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"kiosk-client/internal/model"
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Printer  PrinterConfig  `mapstructure:"printer"`
	Status   StatusConfig   `mapstructure:"status"`
	Push     PushConfig     `mapstructure:"push"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig represents the local bridge HTTP server
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// RemoteConfig represents the kiosk back-end server
type RemoteConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	AppSecret       string        `mapstructure:"app_secret"`
	TokenPath       string        `mapstructure:"token_path"`
	TokenRetries    int           `mapstructure:"token_retries"`
	TokenRetryDelay time.Duration `mapstructure:"token_retry_delay"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// PrinterConfig represents the fixed receipt printer
type PrinterConfig struct {
	VendorID        string           `mapstructure:"vendor_id"`
	ProductID       string           `mapstructure:"product_id"`
	Model           string           `mapstructure:"model"`
	ConnectionType  string           `mapstructure:"connection_type"`
	PaperCheck      bool             `mapstructure:"paper_check"`
	StatusReadDelay time.Duration    `mapstructure:"status_read_delay"`
	ReadTimeout     time.Duration    `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration    `mapstructure:"write_timeout"`
	USB             USBPortConfig    `mapstructure:"usb"`
	Serial          SerialPortConfig `mapstructure:"serial"`
}

// USBPortConfig represents USB port configuration
type USBPortConfig struct {
	Interface int `mapstructure:"interface"`
	Endpoint  int `mapstructure:"endpoint"`
}

// SerialPortConfig represents serial port configuration
type SerialPortConfig struct {
	Port     string `mapstructure:"port"`
	BaudRate int    `mapstructure:"baud_rate"`
	DataBits int    `mapstructure:"data_bits"`
	StopBits int    `mapstructure:"stop_bits"`
	Parity   string `mapstructure:"parity"`
}

// StatusConfig represents status reporting configuration
type StatusConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// PushConfig represents the push-notification listener
type PushConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Path             string        `mapstructure:"path"`
	Namespace        string        `mapstructure:"namespace"`
	ReconnectDelay   time.Duration `mapstructure:"reconnect_delay"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
}

// SecurityConfig represents bridge security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// Load loads configuration from file and environment variables. An empty
// path searches the working directory and /etc/kiosk-client for config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/kiosk-client")
	}

	// Environment variable support
	v.SetEnvPrefix("KIOSK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "kiosk-client")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "production")
	v.SetDefault("app.debug", false)

	// Bridge server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8085")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")

	// Remote defaults
	v.SetDefault("remote.base_url", "http://localhost:5000")
	v.SetDefault("remote.app_secret", "")
	v.SetDefault("remote.token_path", "/api/get_app_token")
	v.SetDefault("remote.token_retries", 3)
	v.SetDefault("remote.token_retry_delay", "2s")
	v.SetDefault("remote.request_timeout", "10s")

	// Printer defaults
	v.SetDefault("printer.vendor_id", "0x04b8")
	v.SetDefault("printer.product_id", "0x0202")
	v.SetDefault("printer.model", "TM-T88II")
	v.SetDefault("printer.connection_type", string(model.ConnectionTypeUSB))
	v.SetDefault("printer.paper_check", true)
	v.SetDefault("printer.status_read_delay", "100ms")
	v.SetDefault("printer.read_timeout", "1s")
	v.SetDefault("printer.write_timeout", "30s")
	v.SetDefault("printer.usb.interface", 0)
	v.SetDefault("printer.usb.endpoint", 0)
	v.SetDefault("printer.serial.port", "/dev/ttyUSB0")
	v.SetDefault("printer.serial.baud_rate", 9600)
	v.SetDefault("printer.serial.data_bits", 8)
	v.SetDefault("printer.serial.stop_bits", 1)
	v.SetDefault("printer.serial.parity", "none")

	// Status defaults
	v.SetDefault("status.poll_interval", "100ms")

	// Push defaults
	v.SetDefault("push.enabled", true)
	v.SetDefault("push.path", "/socket.io/")
	v.SetDefault("push.namespace", "/socket_app_patient")
	v.SetDefault("push.reconnect_delay", "5s")
	v.SetDefault("push.handshake_timeout", "10s")

	// Security defaults
	v.SetDefault("security.allowed_origins", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 20)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 14)
	v.SetDefault("logging.compress", true)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Remote.BaseURL == "" {
		return fmt.Errorf("remote.base_url is required")
	}
	if !strings.HasPrefix(config.Remote.BaseURL, "http://") && !strings.HasPrefix(config.Remote.BaseURL, "https://") {
		return fmt.Errorf("remote.base_url must start with http:// or https://")
	}
	config.Remote.BaseURL = strings.TrimRight(config.Remote.BaseURL, "/")

	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	if _, err := config.Identity(); err != nil {
		return err
	}

	switch model.ConnectionType(strings.ToUpper(config.Printer.ConnectionType)) {
	case model.ConnectionTypeUSB:
	case model.ConnectionTypeSerial:
		if config.Printer.Serial.Port == "" {
			return fmt.Errorf("printer.serial.port is required for serial printers")
		}
	default:
		return fmt.Errorf("printer.connection_type must be one of: %v",
			[]model.ConnectionType{model.ConnectionTypeUSB, model.ConnectionTypeSerial})
	}

	if config.Status.PollInterval <= 0 {
		return fmt.Errorf("status.poll_interval must be positive")
	}

	// Validate environment
	validEnvs := []string{"development", "staging", "production", "test"}
	isValidEnv := false
	for _, env := range validEnvs {
		if config.App.Environment == env {
			isValidEnv = true
			break
		}
	}
	if !isValidEnv {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	// Validate logging level
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	isValidLevel := false
	for _, level := range validLevels {
		if config.Logging.Level == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// Identity returns the parsed printer identity
func (c *Config) Identity() (model.DeviceIdentity, error) {
	return model.ParseDeviceIdentity(c.Printer.VendorID, c.Printer.ProductID, c.Printer.Model)
}

// GetConnectionType returns the normalized printer connection type
func (c *Config) GetConnectionType() model.ConnectionType {
	return model.ConnectionType(strings.ToUpper(c.Printer.ConnectionType))
}

// GetServerAddr returns the bridge server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// GetStatusURL returns the remote printer status endpoint
func (c *Config) GetStatusURL() string {
	return c.Remote.BaseURL + "/api/printer/status"
}

// GetTokenURL returns the remote app token endpoint
func (c *Config) GetTokenURL() string {
	return c.Remote.BaseURL + c.Remote.TokenPath
}

// GetPushURL returns the Socket.IO websocket URL of the push channel
func (c *Config) GetPushURL() string {
	base := c.Remote.BaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + c.Push.Path + "?EIO=4&transport=websocket"
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.App.Environment == "development"
}
