package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	JWT      JWTConfig
	Clinic   ClinicConfig
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" envconfig:"DB_HOST"`
	Port     int    `mapstructure:"port" envconfig:"DB_PORT"`
	User     string `mapstructure:"user" envconfig:"DB_USER"`
	Password string `mapstructure:"password" envconfig:"DB_PASSWORD"`
	Name     string `mapstructure:"name" envconfig:"DB_NAME"`
	SSLMode  string `mapstructure:"sslmode" envconfig:"DB_SSLMODE"`
}

type RedisConfig struct {
	URL string `mapstructure:"url" envconfig:"REDIS_URL"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host" envconfig:"SMTP_HOST"`
	Port     int    `mapstructure:"port" envconfig:"SMTP_PORT"`
	Username string `mapstructure:"username" envconfig:"SMTP_USERNAME"`
	Password string `mapstructure:"password" envconfig:"SMTP_PASSWORD"`
	From     string `mapstructure:"from" envconfig:"SMTP_FROM"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret" envconfig:"JWT_SECRET"`
	ExpiryHours int    `mapstructure:"expiry_hours" envconfig:"JWT_EXPIRY_HOURS"`
}

// ClinicConfig carries the scheduling policy: which weekdays the
// clinic refuses bookings for, and which timezone "today" is
// evaluated in.
type ClinicConfig struct {
	Timezone   string   `mapstructure:"timezone"`
	ClosedDays []string `mapstructure:"closed_days"`
}

// ClosedWeekdays parses the configured closed-day names. Defaults to
// Saturday and Sunday when nothing is configured.
func (c ClinicConfig) ClosedWeekdays() (map[time.Weekday]bool, error) {
	if len(c.ClosedDays) == 0 {
		return map[time.Weekday]bool{
			time.Saturday: true,
			time.Sunday:   true,
		}, nil
	}

	names := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}

	closed := make(map[time.Weekday]bool, len(c.ClosedDays))
	for _, name := range c.ClosedDays {
		day, ok := names[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday in closed_days: %q", name)
		}
		closed[day] = true
	}
	return closed, nil
}

// Location resolves the clinic timezone, defaulting to the host's
// local time.
func (c ClinicConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid clinic timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LoadConfig reads config.yaml and overlays environment variables so
// deployments can override credentials without touching the file.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("", &config.Database); err != nil {
		return nil, fmt.Errorf("failed to process database env overrides: %w", err)
	}
	if err := envconfig.Process("", &config.Redis); err != nil {
		return nil, fmt.Errorf("failed to process redis env overrides: %w", err)
	}
	if err := envconfig.Process("", &config.SMTP); err != nil {
		return nil, fmt.Errorf("failed to process smtp env overrides: %w", err)
	}
	if err := envconfig.Process("", &config.JWT); err != nil {
		return nil, fmt.Errorf("failed to process jwt env overrides: %w", err)
	}

	return &config, nil
}
