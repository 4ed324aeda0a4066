package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jddeal/go-rpgradar/internal/observability"
)

var (
	configFile string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "rpg2nc",
	Short: "Converts RPG cloud radar binary files to netCDF",
	Long: `rpg2nc converts level 0 (spectra) and level 1 (moments) binary files of
RPG FMCW cloud radars to netCDF classic files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return observability.ConfigureLogger(logLevel, logFormat)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default rpg2nc.{yaml,toml} in . or /etc/rpgradar)")
	pf.StringVarP(&logLevel, "log-level", "l", "info", "logging level (error, warn, info, debug, trace)")
	pf.StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	rootCmd.AddCommand(convertCmd, spectraCmd, multiCmd, quicklookCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
