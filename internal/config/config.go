package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment variable, e.g. TINYGAMES_ADDR.
const EnvPrefix = "TINYGAMES"

// Store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config is the resolved server configuration.
type Config struct {
	Addr               string
	Debug              bool
	LogLevel           string
	DailyBudgetSeconds int
	TickInterval       time.Duration
	SessionRetention   time.Duration
	Store              string
	RedisURL           string
	DatabaseURL        string
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("addr", ":8080")
	v.SetDefault("debug", false)
	v.SetDefault("logLevel", "info")
	v.SetDefault("dailyBudgetSeconds", 1800)
	v.SetDefault("tickInterval", time.Second)
	v.SetDefault("sessionRetention", 10*time.Minute)
	v.SetDefault("store", StoreMemory)
	v.SetDefault("redisUrl", "")
	v.SetDefault("databaseUrl", "")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads an optional .env file and the environment. An empty path
// means ".env" in the working directory, which may be missing. An explicit
// path must exist. Variables already set in the environment win.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			return Config{}, errors.Wrapf(err, "config: load %s", path)
		}
	} else if explicit || !os.IsNotExist(err) {
		return Config{}, errors.Wrapf(err, "config: stat %s", path)
	}
	return FromViper(New())
}

// FromViper resolves and validates v.
func FromViper(v *viper.Viper) (Config, error) {
	c := Config{
		Addr:               v.GetString("addr"),
		Debug:              v.GetBool("debug"),
		LogLevel:           v.GetString("logLevel"),
		DailyBudgetSeconds: v.GetInt("dailyBudgetSeconds"),
		TickInterval:       v.GetDuration("tickInterval"),
		SessionRetention:   v.GetDuration("sessionRetention"),
		Store:              strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		RedisURL:           v.GetString("redisUrl"),
		DatabaseURL:        v.GetString("databaseUrl"),
	}
	return c, c.Validate()
}

// Validate checks that the selected store has what it needs.
func (c Config) Validate() error {
	if c.DailyBudgetSeconds <= 0 {
		return errors.Errorf("config: dailyBudgetSeconds must be positive, got %d", c.DailyBudgetSeconds)
	}
	if c.TickInterval < 0 {
		return errors.Errorf("config: negative tickInterval %s", c.TickInterval)
	}
	switch c.Store {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("config: store redis needs redisUrl")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: store postgres needs databaseUrl")
		}
	default:
		return errors.Errorf("config: unknown store %q", c.Store)
	}
	return nil
}
