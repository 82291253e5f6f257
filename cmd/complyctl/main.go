// Command complyctl runs one-shot operational tasks against DATABASE_URL:
// backups, migrations, reminder generation and delivery, and reports.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/Itish41/complytrack/backup"
	"github.com/Itish41/complytrack/initializers"
	service "github.com/Itish41/complytrack/service"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// classify maps configuration problems onto exit codes: 1 for a missing
// DATABASE_URL, 2 for an unsupported scheme, 3 for everything else.
func classify(err error) error {
	var ee *exitErr
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ee):
		return err
	case errors.Is(err, initializers.ErrMissingDatabaseURL):
		return codeError(1, "%v", err)
	case errors.Is(err, initializers.ErrUnsupportedScheme):
		return codeError(2, "%v", err)
	}
	return codeError(3, "%v", err)
}

func main() {
	if err := initializers.LoadEnv(); err != nil {
		log.Printf("[complyctl] failed to load .env: %v", err)
	}
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(stderr, "Error:", ee.msg)
			return ee.code
		}
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "complyctl",
		Short:         "Operational commands for the compliance tracking backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newBackupCmd(), newMigrateCmd(), newNotifyCmd(stdout), newReportCmd(stdout))
	return root
}

func newBackupCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy the sqlite file or pg_dump the postgres database into BACKUP_DIR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := initializers.LoadConfig()
			if dir != "" {
				cfg.BackupDir = dir
			}
			runner := &backup.Runner{Dir: cfg.BackupDir}
			if cfg.BackupS3Bucket != "" {
				up, err := backup.NewS3Uploader(cfg.BackupS3Bucket, cfg.BackupS3Region, cfg.BackupS3Endpoint)
				if err != nil {
					return classify(err)
				}
				runner.Uploader = up
			}
			out, err := runner.Run(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return classify(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Backup directory (overrides BACKUP_DIR)")
	return cmd
}

func openDB() (*gorm.DB, initializers.Dialect, error) {
	cfg := initializers.LoadConfig()
	db, dialect, err := initializers.OpenDatabase(cfg.DatabaseURL, cfg.DBDebug)
	if err != nil {
		return nil, "", classify(err)
	}
	return db, dialect, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, dialect, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)
			return classify(initializers.Migrate(db, dialect))
		},
	}, &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration (postgres only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, dialect, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)
			return classify(initializers.MigrateDown(db, dialect))
		},
	})
	return cmd
}

func companyFlag(raw string) (*uint, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return nil, codeError(3, "invalid --company %q", raw)
	}
	id := uint(n)
	return &id, nil
}

func newNotifyCmd(stdout io.Writer) *cobra.Command {
	var company string
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Queue and deliver task reminders",
	}
	cmd.PersistentFlags().StringVar(&company, "company", "", "Limit to one company id")

	withService := func(fn func(ctx context.Context, s *service.NotificationService, companyID *uint) (interface{}, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			companyID, err := companyFlag(company)
			if err != nil {
				return err
			}
			db, _, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)
			res, err := fn(cmd.Context(), service.NewNotificationService(db, nil, nil), companyID)
			if err != nil {
				return classify(err)
			}
			return json.NewEncoder(stdout).Encode(res)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Queue task_due_soon reminders for tasks inside their reminder window",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, s *service.NotificationService, companyID *uint) (interface{}, error) {
			n, err := s.GenerateDueTaskReminders(ctx, companyID)
			return map[string]int{"queued": n}, err
		}),
	}, &cobra.Command{
		Use:   "send",
		Short: "Deliver queued notifications that are due",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, s *service.NotificationService, companyID *uint) (interface{}, error) {
			return s.SendPending(ctx, companyID)
		}),
	})
	return cmd
}

func newReportCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "report <company-id>",
		Short: "Print a company's compliance dashboard as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			companyID, err := companyFlag(args[0])
			if err != nil {
				return err
			}
			if companyID == nil {
				return codeError(3, "company id is required")
			}
			db, _, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)
			d, err := service.NewReportingService(db, nil).CompanyDashboard(cmd.Context(), *companyID)
			if err != nil {
				return classify(err)
			}
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		},
	}
}
