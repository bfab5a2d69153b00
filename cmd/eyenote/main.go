// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the eyenote CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/eyenote/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the eyenote CLI.
var rootCmd = &cobra.Command{
	Use:   "eyenote",
	Short: "Laterality and negation aware extraction from ophthalmology notes",
	Long: `eyenote segments free-text ophthalmology notes into sections, decides
which eye each mention refers to and whether it is negated, and extracts
findings into a queryable SQLite store.

Use sections and laterality to inspect a single note; extract and findings
process a directory of notes.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./eyenote.yaml or ~/.config/eyenote/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("eyenote")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "eyenote"))
		}
	}

	viper.SetDefault("extraction.notes_dir", "notes")
	viper.SetDefault("extraction.out_dir", "findings")
	viper.SetDefault("extraction.workers", 4)
	viper.SetDefault("store.data_dir", ".")
	viper.SetDefault("store.max_results", 50)

	viper.SetEnvPrefix("EYENOTE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the merged file, environment and default settings.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

// stringFlag returns the flag value when set on the command line, and
// fallback otherwise.
func stringFlag(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

// intFlag is stringFlag for integer flags.
func intFlag(cmd *cobra.Command, name string, fallback int) int {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	return fallback
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
