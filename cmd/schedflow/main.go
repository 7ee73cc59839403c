package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/schedflow/schedflow/internal/cli"
)

var rootCmd = &cobra.Command{Use: "schedflow"}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database connection string")

	viper.SetEnvPrefix("schedflow")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.SetDefault("db", "")
	if err := viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db")); err != nil {
		fmt.Printf("Failed to bind db flag: %v\n", err)
		os.Exit(1)
	}

	cli.SetupCLI(rootCmd)
}

func main() {
	// Load .env if present; flags and SCHEDFLOW_* env vars take precedence.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
