package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/mes/internal/config"
	"github.com/example/mes/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var dbPath string
	var workshopID string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the mes database and config",
		Long: `Write .mes/config.json in the current directory and create the
SQLite database with the required schema (default ~/.mes/mes.db).

Running init again keeps existing data and applies pending migrations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			return runInit(cmd, cwd, dbPath, workshopID)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Database path (default ~/.mes/mes.db)")
	cmd.Flags().StringVarP(&workshopID, "workshop", "w", "", "Workshop id stamped on new orders")

	return cmd
}

func runInit(cmd *cobra.Command, dir, dbPath, workshopID string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if workshopID != "" {
		cfg.WorkshopID = workshopID
	}

	fmt.Fprintf(out, "Initializing mes database at %s\n", cfg.DBPath)
	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	version, err := db.CurrentVersion(conn)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Database ready (schema version %d)\n", version)

	if err := config.SaveConfig(dir, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Config written to %s\n", config.Path(dir))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  mes order create --product <uuid> --quantity 10 --mode piece --op cut:1:1.5")
	fmt.Fprintln(out, "  mes sync status")

	return nil
}
