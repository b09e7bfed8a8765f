package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Listen               string
	Asset                string
	Symbol               string
	Divisibility         uint
	APIKey               string
	Journal              string
	SnapshotFile         string
	PGDSN                string
	SnapshotRetries      int
	SnapshotRetryBackoff time.Duration
	LogLevel             string
	GinMode              string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("POOLD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen", ":8080")
	v.SetDefault("symbol", "ASSET")
	v.SetDefault("divisibility", uint(18))
	v.SetDefault("journal", "./data/journal.jsonl")
	v.SetDefault("snapshot-file", "./data/snapshot.json")
	v.SetDefault("snapshot-retries", 3)
	v.SetDefault("snapshot-retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")
	v.SetDefault("gin-mode", "release")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Listen:               v.GetString("listen"),
		Asset:                v.GetString("asset"),
		Symbol:               v.GetString("symbol"),
		Divisibility:         v.GetUint("divisibility"),
		APIKey:               v.GetString("api-key"),
		Journal:              v.GetString("journal"),
		SnapshotFile:         v.GetString("snapshot-file"),
		PGDSN:                v.GetString("pg-dsn"),
		SnapshotRetries:      v.GetInt("snapshot-retries"),
		SnapshotRetryBackoff: v.GetDuration("snapshot-retry-backoff"),
		LogLevel:             v.GetString("log-level"),
		GinMode:              v.GetString("gin-mode"),
	}

	return cfg, nil
}
