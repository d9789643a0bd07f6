package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/semmidev/tarvault/internal/domain"
)

const (
	MethodRclone = "rclone"
	MethodWebDAV = "webdav"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Rclone   RcloneConfig   `mapstructure:"rclone"`
	WebDAV   WebDAVConfig   `mapstructure:"webdav"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
	WorkDir  string `mapstructure:"work_dir"`
}

type BackupConfig struct {
	Method     string `mapstructure:"method"`
	Name       string `mapstructure:"name"`
	RemoteDir  string `mapstructure:"remote_dir"`
	Globs      string `mapstructure:"globs"`
	MaxBackups int    `mapstructure:"max_backups"`
	Schedule   string `mapstructure:"schedule"`
}

type RcloneConfig struct {
	ConfigContent string `mapstructure:"config_content"`
	Remote        string `mapstructure:"remote"`
	ConfigDir     string `mapstructure:"config_dir"`
	Binary        string `mapstructure:"binary"`
}

type WebDAVConfig struct {
	URL      string        `mapstructure:"url"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type TelegramConfig struct {
	BotToken    string `mapstructure:"bot_token"`
	ChatID      string `mapstructure:"chat_id"`
	APIEndpoint string `mapstructure:"api_endpoint"`
}

var envBindings = map[string]string{
	"app.name":              "APP_NAME",
	"app.log_level":         "LOG_LEVEL",
	"app.log_file":          "LOG_FILE",
	"app.work_dir":          "WORK_DIR",
	"backup.method":         "BACKUP_METHOD",
	"backup.name":           "BACKUP_NAME",
	"backup.remote_dir":     "REMOTE_BACKUP_DIR",
	"backup.globs":          "GLOB_TO_BE_BACKED_UP",
	"backup.max_backups":    "MAX_BACKUPS",
	"backup.schedule":       "BACKUP_SCHEDULE",
	"rclone.config_content": "RCLONE_CONFIG_CONTENT",
	"rclone.remote":         "RCLONE_REMOTE",
	"rclone.config_dir":     "RCLONE_CONFIG_DIR",
	"rclone.binary":         "RCLONE_BINARY",
	"webdav.url":            "WEBDAV_URL",
	"webdav.username":       "WEBDAV_USERNAME",
	"webdav.password":       "WEBDAV_PASSWORD",
	"webdav.timeout":        "WEBDAV_TIMEOUT",
	"telegram.bot_token":    "TELEGRAM_BOT_TOKEN",
	"telegram.chat_id":      "TELEGRAM_CHAT_ID",
	"telegram.api_endpoint": "TELEGRAM_API_ENDPOINT",
}

var lineBreak = regexp.MustCompile(`\r\n|\r|\n`)

// LoadEnvFile merges a dotenv file into the process environment. A missing
// file is not an error; variables already set take precedence.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load reads the optional YAML file at path, overlays environment variables
// and validates the common settings.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app.name", "tarvault")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.work_dir", ".")
	v.SetDefault("backup.max_backups", 0)
	v.SetDefault("rclone.binary", "rclone")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %v", domain.ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backup.Method {
	case MethodRclone:
	case MethodWebDAV:
		if c.WebDAV.URL == "" {
			return fmt.Errorf("WEBDAV_URL is required when BACKUP_METHOD is %s", MethodWebDAV)
		}
	case "":
		return fmt.Errorf("BACKUP_METHOD is required")
	default:
		return fmt.Errorf("BACKUP_METHOD must be %s or %s, got %q", MethodRclone, MethodWebDAV, c.Backup.Method)
	}

	if c.Backup.Name == "" {
		return fmt.Errorf("BACKUP_NAME is required")
	}
	if c.Backup.RemoteDir == "" {
		return fmt.Errorf("REMOTE_BACKUP_DIR is required")
	}
	if c.Backup.MaxBackups < 0 {
		return fmt.Errorf("MAX_BACKUPS must not be negative, got %d", c.Backup.MaxBackups)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}

	return nil
}

// ValidateForBackup checks the settings only the backup command needs.
func (c *Config) ValidateForBackup() error {
	if len(c.GlobPatterns()) == 0 {
		return fmt.Errorf("%w: GLOB_TO_BE_BACKED_UP is required", domain.ErrConfiguration)
	}
	return nil
}

// ValidateForSchedule checks the settings the schedule command needs.
func (c *Config) ValidateForSchedule() error {
	if err := c.ValidateForBackup(); err != nil {
		return err
	}
	if c.Backup.Schedule == "" {
		return fmt.Errorf("%w: BACKUP_SCHEDULE is required", domain.ErrConfiguration)
	}
	return nil
}

// GlobPatterns splits the newline separated pattern list, dropping blank lines.
func (c *Config) GlobPatterns() []string {
	var patterns []string
	for _, line := range lineBreak.Split(c.Backup.Globs, -1) {
		if line = strings.TrimSpace(line); line != "" {
			patterns = append(patterns, line)
		}
	}
	return patterns
}

func (c *Config) NotificationsEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
