package config

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tally/internal/dirs"
)

// Init wires Viper with config paths, env, defaults, and flag bindings.
// It is non-fatal: any errors are returned for optional handling by caller.
func Init(root *cobra.Command) error {
	// Ensure base directories exist
	_ = dirs.EnsureAll()

	// Setup config search path
	if cfgDir, err := dirs.ConfigDir(); err == nil {
		_ = dirs.Ensure(cfgDir)
		viper.AddConfigPath(cfgDir)
	}
	viper.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	// Environment variables: TALLY_*
	viper.SetEnvPrefix("TALLY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Bind root persistent flags to Viper keys. With the binding in place
	// a changed flag wins, then env, then config file, then flag default.
	_ = viper.BindPFlag("interval", root.PersistentFlags().Lookup("interval"))
	_ = viper.BindPFlag("suffix", root.PersistentFlags().Lookup("suffix"))
	_ = viper.BindPFlag("log_format", root.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("jobs", root.PersistentFlags().Lookup("jobs"))
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	// Read config file if present (ignore not found)
	_ = viper.ReadInConfig()

	return nil
}
