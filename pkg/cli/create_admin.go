package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/observability"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/storage"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/storage/postgres"
	"github.com/google/uuid"
)

func newCreateAdminCommand() *Command {
	cmd := &Command{
		Name:        "create-admin",
		Description: "Create an administrator account",
		Flags:       flag.NewFlagSet("create-admin", flag.ContinueOnError),
	}
	cmd.Run = func(args []string) error { return runCreateAdmin(cmd.Flags, args) }

	cmd.Flags.String("db-url", envOr("BOQ_DATABASE_URL", ""), "PostgreSQL connection URL")
	cmd.Flags.String("email", "", "Administrator email")
	cmd.Flags.String("name", "", "Administrator display name")
	cmd.Flags.String("password", envOr("BOQ_ADMIN_PASSWORD", ""), "Administrator password (defaults to $BOQ_ADMIN_PASSWORD)")
	cmd.Flags.String("algorithm", "argon2id", "Password hash algorithm: argon2id or bcrypt")

	return cmd
}

// AdminRequest describes the administrator to create
type AdminRequest struct {
	Email    string
	Name     string
	Password string
}

func runCreateAdmin(flags *flag.FlagSet, args []string) error {
	if err := flags.Parse(args); err != nil {
		return err
	}

	dbURL := flags.Lookup("db-url").Value.String()
	if dbURL == "" {
		return errors.New("--db-url is required")
	}

	hasher, err := auth.NewHasher(flags.Lookup("algorithm").Value.String())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := storage.DefaultConfig()
	cfg.PostgresURL = dbURL
	cm, err := postgres.NewConnectionManager(ctx, cfg, observability.NewLogger(observability.WarnLevel, io.Discard))
	if err != nil {
		return err
	}
	defer cm.Close()

	admin, err := CreateAdmin(ctx, postgres.NewAdminStore(cm.DB()), hasher, AdminRequest{
		Email:    flags.Lookup("email").Value.String(),
		Name:     flags.Lookup("name").Value.String(),
		Password: flags.Lookup("password").Value.String(),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Created administrator %s (%s)\n", admin.Email, admin.ID)
	return nil
}

// CreateAdmin validates req, hashes the password and stores the account.
// A taken email yields auth.ErrConflict.
func CreateAdmin(ctx context.Context, store auth.AdminStore, hasher auth.Hasher, req AdminRequest) (*auth.AdminAccount, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if req.Email == "" {
		return nil, fmt.Errorf("email is required: %w", auth.ErrValidation)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, fmt.Errorf("email is invalid: %w", auth.ErrValidation)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("name is required: %w", auth.ErrValidation)
	}
	if len(req.Password) < auth.MinPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters: %w", auth.MinPasswordLength, auth.ErrValidation)
	}

	hash, err := hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	admin := &auth.AdminAccount{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Status:       auth.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to create administrator: %w", err)
	}
	return admin, nil
}
