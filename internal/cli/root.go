package cli

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"stock-count/internal/timeutil"
)

var timezone string

var rootCmd = &cobra.Command{
	Use:   "stockcount",
	Short: "Offline tools for stock count files",
	Long: `stockcount runs the stock count engine without the HTTP service:
infer a stock list's columns, reconcile a counts file into the original
upload and hash the monitoring password.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "", "IANA timezone for timestamps (default TZ env or local)")

	rootCmd.AddCommand(inferCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}

func initConfig() {
	// .env is optional for the CLI
	godotenv.Load()

	if timezone != "" {
		timeutil.SetLocation(timezone)
	}
}
