package main

import (
	"github.com/lshigami/mockdrive/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "mockdrive",
	Short:         "Mock drive attempt orchestration and scoring engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if level := viper.GetString("LOG_LEVEL"); level != "" {
			logger.SetLevel(level)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (defaults to ./.env)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level, overrides LOG_LEVEL")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("LOG_LEVEL", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(reapCmd)
}
