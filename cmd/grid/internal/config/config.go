// Package config loads the settings of the grid command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem configuration, .env files and schemas are read
// from.
var AppFs = afero.NewOsFs()

var validate = validator.New()

// Config holds the command configuration.
type Config struct {
	Schema        string        `mapstructure:"schema" validate:"required"`
	Driver        string        `mapstructure:"driver" validate:"required,oneof=mysql sqlite postgres"`
	DSN           string        `mapstructure:"dsn"`
	Format        string        `mapstructure:"format" validate:"oneof=table json yaml msgpack"`
	Debug         bool          `mapstructure:"debug"`
	LegacyLimit   bool          `mapstructure:"legacy_limit"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold" validate:"gte=0"`
}

// Load reads the configuration into v and returns it. Sources by priority:
// flags bound to v, GRID_* environment variables (.env.local, then .env,
// are loaded into the environment first), the config file and defaults.
// When file is empty, .grid.yaml is searched in the working directory, the
// home directory and ~/.config/grid.
func Load(v *viper.Viper, file string) (*Config, error) {
	if err := loadEnv(); err != nil {
		return nil, err
	}

	v.SetFs(AppFs)
	if file != "" {
		path, err := homedir.Expand(file)
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".grid")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
			v.AddConfigPath(filepath.Join(home, ".config", "grid"))
		}
	}

	v.SetEnvPrefix("GRID")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("schema", "schema.yaml")
	v.SetDefault("driver", "mysql")
	v.SetDefault("dsn", "")
	v.SetDefault("format", "table")
	v.SetDefault("debug", false)
	v.SetDefault("legacy_limit", false)
	v.SetDefault("slow_threshold", 200*time.Millisecond)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if cfg.DSN == "" {
		cfg.DSN = os.Getenv("DATABASE_URL")
	}
	schema, err := homedir.Expand(cfg.Schema)
	if err != nil {
		return nil, err
	}
	cfg.Schema = schema
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// loadEnv loads .env without overriding the environment, then .env.local
// over it.
func loadEnv() error {
	for _, f := range []struct {
		name     string
		override bool
	}{
		{".env", false},
		{".env.local", true},
	} {
		file, err := AppFs.Open(f.name)
		if err != nil {
			continue
		}
		env, err := godotenv.Parse(file)
		file.Close()
		if err != nil {
			return fmt.Errorf("config: %s: %w", f.name, err)
		}
		for k, val := range env {
			if _, set := os.LookupEnv(k); set && !f.override {
				continue
			}
			if err := os.Setenv(k, val); err != nil {
				return err
			}
		}
	}
	return nil
}
