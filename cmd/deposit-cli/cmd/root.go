package cmd

import (
	"fmt"
	"os"

	"deposit-core/pkg/config"
	"deposit-core/pkg/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "deposit-cli",
	Short: "Admin tool for the deposit monitor",
	Long: `Command line administration for the deposit monitoring service.
Registers blockchain networks and wallet addresses, and inspects recorded
deposits, against the same database the engine runs on.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// openDB connects using the same config resolution as the server.
func openDB() (*gorm.DB, error) {
	config.Init()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		config.Global.DB.Host,
		config.Global.DB.User,
		config.Global.DB.Password,
		config.Global.DB.Name,
		config.Global.DB.Port,
	)
	return database.ConnectPostgres(dsn)
}
