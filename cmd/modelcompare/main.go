package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sipeed/modelcompare/pkg/logging"
)

var (
	configPath string
	jsonLogs   bool
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:   "modelcompare",
		Short: "Dispatch a question to several comparison models in parallel",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "modelcompare.yaml", "path to the runtime configuration file")
	root.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit structured JSON logs instead of console output")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.Configure(os.Stderr, logLevel, jsonLogs)
	}

	root.AddCommand(newCompareCommand())
	root.AddCommand(newWatchCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
