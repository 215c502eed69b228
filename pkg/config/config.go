package config

import (
	"errors"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds everything the commands need to run.
type Config struct {
	CSVDir          string  `mapstructure:"csv_dir"`
	CredentialsFile string  `mapstructure:"credentials_file"`
	CookieFile      string  `mapstructure:"cookie_file"`
	BaseURL         string  `mapstructure:"base_url"`
	DelayMin        float64 `mapstructure:"delay_min"`
	DelayMax        float64 `mapstructure:"delay_max"`
	StartupDelay    float64 `mapstructure:"startup_delay"`
}

// Build resolves configuration from defaults, an optional YAML file, MKM_*
// environment variables and flag overrides, in that order.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("csv_dir", "csv_files")
	v.SetDefault("credentials_file", "config.yaml")
	v.SetDefault("cookie_file", "cookies.bin")
	v.SetDefault("base_url", "https://www.cardmarket.com/en/Magic")
	v.SetDefault("delay_min", 8.0)
	v.SetDefault("delay_max", 12.0)
	v.SetDefault("startup_delay", 2.0)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("mkmsearch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("MKM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
