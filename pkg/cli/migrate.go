package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/observability"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/storage"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/storage/postgres"
)

func newMigrateCommand() *Command {
	cmd := &Command{
		Name:        "migrate",
		Description: "Apply pending database migrations",
		Flags:       flag.NewFlagSet("migrate", flag.ContinueOnError),
	}
	cmd.Run = func(args []string) error { return runMigrate(cmd.Flags, args) }

	cmd.Flags.String("db-url", envOr("BOQ_DATABASE_URL", ""), "PostgreSQL connection URL")

	return cmd
}

func runMigrate(flags *flag.FlagSet, args []string) error {
	if err := flags.Parse(args); err != nil {
		return err
	}

	dbURL := flags.Lookup("db-url").Value.String()
	if dbURL == "" {
		return errors.New("--db-url is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg := storage.DefaultConfig()
	cfg.PostgresURL = dbURL
	cm, err := postgres.NewConnectionManager(ctx, cfg, observability.NewLogger(observability.WarnLevel, io.Discard))
	if err != nil {
		return err
	}
	defer cm.Close()

	if err := postgres.Migrate(ctx, cm.DB()); err != nil {
		return err
	}

	applied, err := postgres.AppliedMigrations(ctx, cm.DB())
	if err != nil {
		return err
	}
	for _, name := range applied {
		fmt.Fprintf(out, "applied %s\n", name)
	}
	return nil
}
