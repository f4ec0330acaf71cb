// Package config loads runtime settings from defaults, an optional
// formbuilder.yaml and FORMBUILDER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// FORMBUILDER_STORAGE_DRIVER.
const EnvPrefix = "formbuilder"

// Storage drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type AppConfig struct {
	Storage StorageConfig
	HTTP    HTTPConfig
	Log     LogConfig
	Preview PreviewConfig
}

type StorageConfig struct {
	Driver string
	Path   string
	Key    string
}

type HTTPConfig struct {
	Addr           string
	AllowedOrigins []string
}

type LogConfig struct {
	Level       string
	Format      string
	Development bool
}

type PreviewConfig struct {
	Theme   string
	Variant string
	Title   string
}

// FlagBindings maps config keys onto command line flag names.
type FlagBindings map[string]string

// Load reads configuration into a fresh viper instance. configFile, when not
// empty, must exist; otherwise formbuilder.yaml is looked up in the working
// directory, ./config and $HOME/.config/formbuilder. Flags in bindings that
// were set on the command line win over every other source.
func Load(configFile string, flags *pflag.FlagSet, bindings FlagBindings) (AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("formbuilder")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "formbuilder"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("config: read config: %w", err)
		}
	}

	if flags != nil {
		for key, name := range bindings {
			flag := flags.Lookup(name)
			if flag == nil {
				return AppConfig{}, fmt.Errorf("config: unknown flag %q for key %q", name, key)
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return AppConfig{}, fmt.Errorf("config: bind flag %q: %w", name, err)
			}
		}
	}

	cfg := AppConfig{
		Storage: StorageConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("storage.driver"))),
			Path:   v.GetString("storage.path"),
			Key:    v.GetString("storage.key"),
		},
		HTTP: HTTPConfig{
			Addr:           v.GetString("http.addr"),
			AllowedOrigins: v.GetStringSlice("http.allowed_origins"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Format:      v.GetString("log.format"),
			Development: v.GetBool("log.development"),
		},
		Preview: PreviewConfig{
			Theme:   v.GetString("preview.theme"),
			Variant: v.GetString("preview.variant"),
			Title:   v.GetString("preview.title"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks values that have a closed set of choices.
func (c AppConfig) Validate() error {
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("config: storage.key must not be empty")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.path", ".formbuilder")
	v.SetDefault("storage.key", "form-builder-storage")
	v.SetDefault("http.addr", ":3000")
	v.SetDefault("http.allowed_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.development", false)
	v.SetDefault("preview.theme", "")
	v.SetDefault("preview.variant", "")
	v.SetDefault("preview.title", "")
}
