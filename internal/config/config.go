package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Discord     DiscordConfig     `json:"discord"`
	Display     DisplayConfig     `json:"display"`
	Dashboard   DashboardConfig   `json:"dashboard"`
	Alert       AlertConfig       `json:"alert"`
	Probes      ProbesConfig      `json:"probes"`
	QBittorrent QBittorrentConfig `json:"qbittorrent"`
	MQTT        MQTTConfig        `json:"mqtt"`
	Logging     LoggingConfig     `json:"logging"`
}

// DiscordConfig holds Discord bot configuration
type DiscordConfig struct {
	BotToken    string   `json:"bot_token"`
	GuildIDs    []string `json:"guild_ids"`
	AdminUserID string   `json:"admin_user_id"`
}

// DisplayConfig holds the display driver configuration
type DisplayConfig struct {
	Driver      string        `json:"driver"` // ssd1306, terminal or log
	I2CBus      int           `json:"i2c_bus"`
	I2CAddress  int           `json:"i2c_address"`
	MinInterval time.Duration `json:"min_interval"`
	Title       string        `json:"title"`
}

// DashboardConfig holds screen selection and update loop timing
type DashboardConfig struct {
	TickInterval   time.Duration `json:"tick_interval"`
	RotationPeriod time.Duration `json:"rotation_period"`
	ActivityWindow time.Duration `json:"activity_window"`
	DisplayWidth   int           `json:"display_width"`
}

// AlertConfig holds alert thresholds and notification cooldown
type AlertConfig struct {
	TempThreshold   float64       `json:"temp_threshold"`   // degrees Celsius
	MemoryThreshold int           `json:"memory_threshold"` // percent used
	Cooldown        time.Duration `json:"cooldown"`
}

// ProbesConfig holds probe sources and cache TTLs
type ProbesConfig struct {
	ContainerName  string        `json:"container_name"`
	ContainerTTL   time.Duration `json:"container_ttl"`
	PlayersTTL     time.Duration `json:"players_ttl"`
	TorrentTTL     time.Duration `json:"torrent_ttl"`
	IPTTL          time.Duration `json:"ip_ttl"`
	UpPrefix       string        `json:"up_prefix"`
	StartingMarker string        `json:"starting_marker"`
	ThermalPath    string        `json:"thermal_path"`
	MeminfoPath    string        `json:"meminfo_path"`
	CommandTimeout time.Duration `json:"command_timeout"`
}

// QBittorrentConfig holds qBittorrent client configuration
type QBittorrentConfig struct {
	URL            string        `json:"url"`
	Username       string        `json:"username"`
	Password       string        `json:"password"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

// MQTTConfig holds the optional MQTT notifier configuration
type MQTTConfig struct {
	Broker   string `json:"broker"`
	Topic    string `json:"topic"`
	ClientID string `json:"client_id"`
	Enabled  bool   `json:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `json:"level"`
	File       string `json:"file"`
	MaxSize    int    `json:"max_size"`    // megabytes
	MaxBackups int    `json:"max_backups"` // number of backup files
	MaxAge     int    `json:"max_age"`     // days
	Compress   bool   `json:"compress"`    // compress rotated files
	ToStdout   bool   `json:"to_stdout"`   // also log to stdout
}

// Display drivers understood by the display package
const (
	DriverSSD1306  = "ssd1306"
	DriverTerminal = "terminal"
	DriverLog      = "log"
)

var defaults = map[string]interface{}{
	"discord.bot_token":     "",
	"discord.guild_id":      "",
	"discord.admin_user_id": "",

	"display.driver":       DriverLog,
	"display.i2c_bus":      1,
	"display.i2c_address":  0x3c,
	"display.min_interval": 200 * time.Millisecond,
	"display.title":        "Homepanel",

	"dashboard.tick_interval":   2 * time.Second,
	"dashboard.rotation_period": 6 * time.Second,
	"dashboard.activity_window": 20 * time.Second,
	"dashboard.display_width":   20,

	"alert.temp_threshold":   70.0,
	"alert.memory_threshold": 90,
	"alert.cooldown":         30 * time.Minute,

	"probes.container_name":  "mc-server",
	"probes.container_ttl":   5 * time.Second,
	"probes.players_ttl":     10 * time.Second,
	"probes.torrent_ttl":     5 * time.Second,
	"probes.ip_ttl":          30 * time.Second,
	"probes.up_prefix":       "Up",
	"probes.starting_marker": "health: starting",
	"probes.thermal_path":    "/sys/class/thermal/thermal_zone0/temp",
	"probes.meminfo_path":    "/proc/meminfo",
	"probes.command_timeout": 5 * time.Second,

	"qbittorrent.url":             "http://localhost:8080",
	"qbittorrent.username":        "admin",
	"qbittorrent.password":        "",
	"qbittorrent.request_timeout": 5 * time.Second,

	"mqtt.broker":    "",
	"mqtt.topic":     "homepanel/alerts",
	"mqtt.client_id": "homepanel",

	"logging.level":       "info",
	"logging.file":        "log/homepanel.log",
	"logging.max_size":    10,
	"logging.max_backups": 14,
	"logging.max_age":     14,
	"logging.compress":    true,
	"logging.to_stdout":   true,
}

// LoadConfig loads configuration from .env, an optional config file and the
// environment. Environment keys are the upper-cased viper keys with dots
// replaced by underscores (e.g. ALERT_TEMP_THRESHOLD).
func LoadConfig(configFile string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Don't fail if .env doesn't exist, just continue with system env vars
		fmt.Printf("Warning: .env file not found, using system environment variables\n")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := fromViper(v)

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func fromViper(v *viper.Viper) *Config {
	config := &Config{}

	// Load Discord configuration
	config.Discord.BotToken = v.GetString("discord.bot_token")
	if guildID := v.GetString("discord.guild_id"); guildID != "" {
		config.Discord.GuildIDs = strings.Split(guildID, ",")
	}
	config.Discord.AdminUserID = v.GetString("discord.admin_user_id")

	// Load display configuration
	config.Display.Driver = strings.ToLower(v.GetString("display.driver"))
	config.Display.I2CBus = v.GetInt("display.i2c_bus")
	config.Display.I2CAddress = v.GetInt("display.i2c_address")
	config.Display.MinInterval = v.GetDuration("display.min_interval")
	config.Display.Title = v.GetString("display.title")

	// Load dashboard configuration
	config.Dashboard.TickInterval = v.GetDuration("dashboard.tick_interval")
	config.Dashboard.RotationPeriod = v.GetDuration("dashboard.rotation_period")
	config.Dashboard.ActivityWindow = v.GetDuration("dashboard.activity_window")
	config.Dashboard.DisplayWidth = v.GetInt("dashboard.display_width")

	// Load alert configuration
	config.Alert.TempThreshold = v.GetFloat64("alert.temp_threshold")
	config.Alert.MemoryThreshold = v.GetInt("alert.memory_threshold")
	config.Alert.Cooldown = v.GetDuration("alert.cooldown")

	// Load probe configuration
	config.Probes.ContainerName = v.GetString("probes.container_name")
	config.Probes.ContainerTTL = v.GetDuration("probes.container_ttl")
	config.Probes.PlayersTTL = v.GetDuration("probes.players_ttl")
	config.Probes.TorrentTTL = v.GetDuration("probes.torrent_ttl")
	config.Probes.IPTTL = v.GetDuration("probes.ip_ttl")
	config.Probes.UpPrefix = v.GetString("probes.up_prefix")
	config.Probes.StartingMarker = v.GetString("probes.starting_marker")
	config.Probes.ThermalPath = v.GetString("probes.thermal_path")
	config.Probes.MeminfoPath = v.GetString("probes.meminfo_path")
	config.Probes.CommandTimeout = v.GetDuration("probes.command_timeout")

	// Load qBittorrent configuration
	config.QBittorrent.URL = v.GetString("qbittorrent.url")
	config.QBittorrent.Username = v.GetString("qbittorrent.username")
	config.QBittorrent.Password = v.GetString("qbittorrent.password")
	config.QBittorrent.RequestTimeout = v.GetDuration("qbittorrent.request_timeout")

	// Load MQTT configuration (optional)
	config.MQTT.Broker = v.GetString("mqtt.broker")
	config.MQTT.Topic = v.GetString("mqtt.topic")
	config.MQTT.ClientID = v.GetString("mqtt.client_id")
	config.MQTT.Enabled = config.MQTT.Broker != ""

	// Load logging configuration
	config.Logging.Level = strings.ToLower(v.GetString("logging.level"))
	config.Logging.File = v.GetString("logging.file")
	config.Logging.MaxSize = v.GetInt("logging.max_size")
	config.Logging.MaxBackups = v.GetInt("logging.max_backups")
	config.Logging.MaxAge = v.GetInt("logging.max_age")
	config.Logging.Compress = v.GetBool("logging.compress")
	config.Logging.ToStdout = v.GetBool("logging.to_stdout")

	return config
}

// Default returns the configuration built from defaults only, without
// validation.
func Default() *Config {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return fromViper(v)
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	switch c.Display.Driver {
	case DriverSSD1306, DriverTerminal, DriverLog:
	default:
		return fmt.Errorf("invalid display driver: %s (must be one of: %s, %s, %s)",
			c.Display.Driver, DriverSSD1306, DriverTerminal, DriverLog)
	}

	if c.Display.MinInterval < 0 {
		return errors.New("display min interval must not be negative")
	}

	if c.Dashboard.TickInterval <= 0 {
		return fmt.Errorf("dashboard tick interval must be greater than 0, got: %s", c.Dashboard.TickInterval)
	}
	if c.Dashboard.RotationPeriod <= 0 {
		return fmt.Errorf("dashboard rotation period must be greater than 0, got: %s", c.Dashboard.RotationPeriod)
	}
	if c.Dashboard.ActivityWindow <= 0 {
		return fmt.Errorf("dashboard activity window must be greater than 0, got: %s", c.Dashboard.ActivityWindow)
	}
	if c.Dashboard.DisplayWidth <= 0 {
		return fmt.Errorf("dashboard display width must be greater than 0, got: %d", c.Dashboard.DisplayWidth)
	}

	if c.Alert.TempThreshold <= 0 {
		return fmt.Errorf("alert temperature threshold must be greater than 0, got: %f", c.Alert.TempThreshold)
	}
	if c.Alert.MemoryThreshold <= 0 || c.Alert.MemoryThreshold > 100 {
		return fmt.Errorf("alert memory threshold must be in (0, 100], got: %d", c.Alert.MemoryThreshold)
	}
	if c.Alert.Cooldown < 0 {
		return errors.New("alert cooldown must not be negative")
	}

	if c.Probes.ContainerName == "" {
		return errors.New("PROBES_CONTAINER_NAME is required")
	}
	if c.Probes.UpPrefix == "" {
		return errors.New("PROBES_UP_PREFIX is required")
	}

	if c.Discord.BotToken != "" && c.Discord.AdminUserID == "" {
		return errors.New("DISCORD_ADMIN_USER_ID is required when a bot token is set")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be one of: trace, debug, info, warn, error, fatal, panic)", c.Logging.Level)
	}

	return nil
}
