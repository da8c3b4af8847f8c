package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unclebandit/lunchly-backend/internal/config"
	"github.com/unclebandit/lunchly-backend/internal/db"
	"github.com/unclebandit/lunchly-backend/internal/repository"
	"github.com/unclebandit/lunchly-backend/internal/service"
)

var (
	cfgFile string
	cfg     *config.Config
	flags   config.Flags
	version = "dev"

	// openService builds the service the customer commands run against.
	openService = openDatabaseService
)

var rootCmd = &cobra.Command{
	Use:   "lunchctl",
	Short: "Lunchly restaurant admin tool",
	Long: `lunchctl inspects and edits Lunchly customers directly against
the reservations database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.LoadOrDefault(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lunchctl %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "lunchly.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&flags.URL, "url", "", "database connection URL")
	rootCmd.PersistentFlags().StringVar(&flags.Driver, "driver", "", "database driver (postgres or pgx)")

	rootCmd.AddCommand(customersCmd)
	rootCmd.AddCommand(versionCmd)
}

func openDatabaseService(ctx context.Context) (*service.CustomerService, func(), error) {
	dsn, err := cfg.GetDatabaseURL(&flags)
	if err != nil {
		return nil, nil, err
	}

	conn, err := db.Open(ctx, cfg.GetDriver(&flags), dsn)
	if err != nil {
		return nil, nil, err
	}

	reservationRepo := &repository.ReservationRepository{DB: conn}
	svc := &service.CustomerService{
		CustomerRepo:    &repository.CustomerRepository{DB: conn, Reservations: reservationRepo},
		ReservationRepo: reservationRepo,
	}
	return svc, func() { _ = conn.Close() }, nil
}

func SetVersion(v string) {
	version = v
}

func Execute() error {
	return rootCmd.Execute()
}

func Root() *cobra.Command {
	return rootCmd
}
