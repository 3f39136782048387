package config

import (
	"github.com/spf13/pflag"
)

// ServeConfig holds configuration for the serve command.
type ServeConfig struct {
	Config
	Listen string
}

// LoadServe merges config file, environment variables, and flags into
// ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ServeConfig{}, err
	}

	v.SetDefault("listen", ":8080")

	return ServeConfig{
		Config: fromViper(v),
		Listen: v.GetString("listen"),
	}, nil
}
