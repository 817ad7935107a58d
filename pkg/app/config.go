package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/autopeer-io/fleetcast/pkg/log"
)

const (
	configFlagName = "config"

	// EnvPrefix prefixes environment overrides: --http.addr is read from
	// FLEETCAST_HTTP_ADDR.
	EnvPrefix = "FLEETCAST"
)

func addConfigFlag(fs *pflag.FlagSet, basename string) {
	fs.StringP(configFlagName, "c", "", fmt.Sprintf("Read configuration from the specified file (e.g. %s.yaml). Supports YAML, JSON and TOML.", basename))
}

// loadDotEnv reads .env from the working directory when it exists. Variables
// already set in the environment win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// newViper merges, from highest precedence: changed flags, FLEETCAST_*
// environment variables, the config file, flag defaults.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file, _ := flags.GetString(configFlagName); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read configuration file %s: %w", file, err)
		}
	}
	return v, nil
}

// watchConfig logs edits to the config file. Changes take effect on restart.
func watchConfig(v *viper.Viper) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		log.Info("Configuration file changed, restart to apply", "file", e.Name, "op", e.Op.String())
	})
	v.WatchConfig()
}
