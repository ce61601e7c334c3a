package main

import (
	"fmt"
	"os"

	"github.com/markliwag/casetrack/internal/cli"
	"github.com/markliwag/casetrack/internal/config"
	internal_http "github.com/markliwag/casetrack/internal/http"
	"github.com/markliwag/casetrack/internal/log"
	internal_storage "github.com/markliwag/casetrack/internal/storage"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{Use: "casetrack"}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the casetrack HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			log.GetLogger().Errorf("Failed to load configuration: %v", err)
			os.Exit(1)
		}
		if dbConnStr, _ := cmd.Flags().GetString("db"); dbConnStr != "" {
			cfg.DBURL = dbConnStr
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}
		if err := cfg.Validate(); err != nil {
			log.GetLogger().Errorf("Invalid configuration: %v", err)
			os.Exit(1)
		}

		store, err := internal_storage.InitStore(cfg.DBURL)
		if err != nil {
			log.GetLogger().Errorf("Failed to initialize store: %v", err)
			os.Exit(1)
		}
		defer store.Close()

		if err := internal_http.StartServer(cfg.Port, store); err != nil {
			log.GetLogger().Errorf("Server stopped: %v", err)
			os.Exit(1)
		}
	},
}

func main() {
	serveCmd.Flags().String("port", "", "Port to listen on (overrides CASETRACK_PORT)")
	rootCmd.PersistentFlags().String("db", "", "Database connection string")
	rootCmd.AddCommand(serveCmd)
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
