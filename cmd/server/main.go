package main

import (
	"fmt"
	"os"

	"github.com/anonto42/yatube/backend/pkg/config"
	"github.com/anonto42/yatube/backend/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd runs the server when no subcommand is given.
func newRootCmd() *cobra.Command {
	serve := newServeCommand()
	rootCmd := &cobra.Command{
		Use:           "yatube",
		Short:         "Yatube blogging backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	rootCmd.AddCommand(
		serve,
		newMigrateCommand(),
		newGroupCommand(),
	)
	return rootCmd
}

// runtime is the process-wide state every command starts from.
type runtime struct {
	cfg *config.Config
	log *zap.Logger
	db  *config.DB
}

func bootstrap() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init databases: %w", err)
	}
	return &runtime{cfg: cfg, log: log, db: db}, nil
}

func (r *runtime) close() {
	r.db.Close()
	r.log.Sync()
}
