package internal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type MemSQLConfig struct {
	AppName string `mapstructure:"app_name"`

	Server struct {
		Addr        string `mapstructure:"addr"`
		SharedStore bool   `mapstructure:"shared_store"`
		Debug       bool   `mapstructure:"debug"`
	} `mapstructure:"server"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Executor struct {
		StmtCacheSize int `mapstructure:"stmt_cache_size"`
	} `mapstructure:"executor"`

	REPL struct {
		Prompt     string `mapstructure:"prompt"`
		History    string `mapstructure:"history"`
		HistoryMax int    `mapstructure:"history_max"`
	} `mapstructure:"repl"`
}

const envPrefix = "MEMSQL"

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "memsql")
	v.SetDefault("server.addr", "127.0.0.1:5432")
	v.SetDefault("server.shared_store", false)
	v.SetDefault("server.debug", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("executor.stmt_cache_size", 128)
	v.SetDefault("repl.prompt", "SQL> ")
	v.SetDefault("repl.history", "")
	v.SetDefault("repl.history_max", 1000)
}

// LoadConfig reads the YAML file at path on top of the defaults. An empty
// path skips the file. MEMSQL_* environment variables win over both,
// e.g. MEMSQL_SERVER_ADDR for server.addr.
func LoadConfig(path string) (*MemSQLConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg MemSQLConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var ErrInvalidConfig = errors.New("memsql: invalid config")

func (c *MemSQLConfig) validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q (want text or json)", ErrInvalidConfig, c.Log.Format)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is empty", ErrInvalidConfig)
	}
	if c.REPL.HistoryMax < 0 {
		return fmt.Errorf("%w: repl.history_max must be >= 0", ErrInvalidConfig)
	}
	return nil
}
