// cmd/catalogctl/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/biologist/catalog-backend/internal/config"
	"github.com/biologist/catalog-backend/internal/database"
	"github.com/biologist/catalog-backend/internal/logging"
	"github.com/biologist/catalog-backend/internal/services"
)

const (
	exitError = 1
	exitUsage = 2
	exitBusy  = 3
)

type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitCodeError{code: code, err: err}
}

// app holds what every subcommand needs once the root command has run.
type app struct {
	cfg  *config.Config
	db   *gorm.DB
	lock services.RunLock
}

func (a *app) importService() (*services.ImportService, error) {
	storage, err := services.NewStorageService(a.cfg)
	if err != nil {
		return nil, err
	}
	if a.lock == nil {
		lock, err := services.NewRunLock(a.cfg)
		if err != nil {
			return nil, err
		}
		a.lock = lock
	}
	return services.NewImportService(a.db, storage, a.lock, a.cfg), nil
}

// close releases the lock backend and the database, whichever were opened.
func (a *app) close() {
	if a.lock != nil {
		if err := a.lock.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close import lock")
		}
		a.lock = nil
	}
	if a.db != nil {
		database.Close(a.db)
		a.db = nil
	}
}

func newRootCmd(a *app) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Operate the product catalog: imports, seeding and migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("invalid configuration: %w", err))
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
			logrus.SetOutput(cmd.ErrOrStderr())

			db, err := database.Initialize(cfg.Database)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.db = db
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		newImportCmd(a),
		newSeedCmd(a),
		newMigrateCmd(a),
		newRunsCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "Error:", err)

	var coded *exitCodeError
	switch {
	case errors.As(err, &coded):
		os.Exit(coded.code)
	case errors.Is(err, services.ErrImportInProgress):
		os.Exit(exitBusy)
	default:
		os.Exit(exitError)
	}
}
