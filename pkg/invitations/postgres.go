package invitations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	"github.com/lib/pq"
)

const requestColumns = `id, project_id, user_id, invite_email, invited_by, status, token_hash, expires_at, created_at, updated_at`

// PostgresStore implements Store on the collaboration_requests table
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed invitation store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a new collaboration request
func (s *PostgresStore) Create(ctx context.Context, req *CollaborationRequest) error {
	query := `
		INSERT INTO collaboration_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		req.ID, req.ProjectID, req.UserID, req.InviteEmail, req.InvitedBy,
		req.Status, nullString(req.TokenHash), req.ExpiresAt, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create collaboration request: %w", err)
	}
	return nil
}

// Get retrieves a collaboration request by id
func (s *PostgresStore) Get(ctx context.Context, id string) (*CollaborationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM collaboration_requests WHERE id = $1`
	req, err := scanRequest(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collaboration request: %w", err)
	}
	return req, nil
}

// BindEmail locks every matching email-only request and rebinds it to userID
func (s *PostgresStore) BindEmail(ctx context.Context, email, userID string, now time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id FROM collaboration_requests
		WHERE user_id IS NULL
		  AND lower(invite_email) = lower($1)
		  AND status = 'pending'
		  AND (expires_at IS NULL OR expires_at > $2)
		FOR UPDATE
	`
	rows, err := tx.QueryContext(ctx, query, email, now)
	if err != nil {
		return 0, fmt.Errorf("failed to select pending invitations: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan invitation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("failed to iterate invitations: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return 0, nil
	}

	query = `
		UPDATE collaboration_requests
		SET user_id = $1, invite_email = NULL, updated_at = $2
		WHERE id = ANY($3)
	`
	if _, err := tx.ExecContext(ctx, query, userID, now, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("failed to bind invitations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(ids), nil
}

// MarkAccepted transitions a pending request to accepted, binds it and
// inserts the collaborator row in the same transaction
func (s *PostgresStore) MarkAccepted(ctx context.Context, id, userID string, now time.Time) error {
	return s.transition(ctx, id, func(tx *sql.Tx, locked lockedRequest) error {
		query := `
			UPDATE collaboration_requests
			SET status = $2, user_id = $3, invite_email = NULL, updated_at = $4
			WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, query, id, StatusAccepted, userID, now); err != nil {
			return fmt.Errorf("failed to update collaboration request: %w", err)
		}
		return addCollaborator(ctx, tx, locked.projectID, userID, locked.invitedBy)
	})
}

// MarkRejected transitions a pending request to rejected
func (s *PostgresStore) MarkRejected(ctx context.Context, id string, now time.Time) error {
	return s.transition(ctx, id, func(tx *sql.Tx, _ lockedRequest) error {
		query := `
			UPDATE collaboration_requests
			SET status = $2, updated_at = $3
			WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, query, id, StatusRejected, now); err != nil {
			return fmt.Errorf("failed to update collaboration request: %w", err)
		}
		return nil
	})
}

type lockedRequest struct {
	projectID string
	invitedBy string
}

// transition locks the row, checks it is still pending and runs apply in
// the same transaction. Nothing commits unless apply succeeds.
func (s *PostgresStore) transition(ctx context.Context, id string, apply func(*sql.Tx, lockedRequest) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status Status
	var locked lockedRequest
	err = tx.QueryRowContext(ctx,
		`SELECT status, project_id, invited_by FROM collaboration_requests WHERE id = $1 FOR UPDATE`, id,
	).Scan(&status, &locked.projectID, &locked.invitedBy)
	if err == sql.ErrNoRows {
		return ErrInvitationNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock collaboration request: %w", err)
	}
	if status != StatusPending {
		return ErrNotPending
	}

	if err := apply(tx, locked); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// addCollaborator inserts the membership row, ignoring an existing one
func addCollaborator(ctx context.Context, tx *sql.Tx, projectID, userID, addedBy string) error {
	query := `
		INSERT INTO project_collaborators (project_id, user_id, added_by, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (project_id, user_id) DO NOTHING
	`
	_, err := tx.ExecContext(ctx, query, projectID, userID, addedBy)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return fmt.Errorf("project or user does not exist: %w", auth.ErrNotFound)
		}
		return fmt.Errorf("failed to add collaborator: %w", err)
	}
	return nil
}

// ListForUser lists pending requests visible to a user
func (s *PostgresStore) ListForUser(ctx context.Context, userID, email string) ([]*CollaborationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM collaboration_requests
		WHERE status = 'pending'
		  AND (user_id = $1 OR (user_id IS NULL AND lower(invite_email) = lower($2)))
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaboration requests: %w", err)
	}
	defer rows.Close()

	var reqs []*CollaborationRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collaboration request: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row scanner) (*CollaborationRequest, error) {
	var req CollaborationRequest
	var userID, email, tokenHash sql.NullString
	var expiresAt sql.NullTime

	err := row.Scan(
		&req.ID, &req.ProjectID, &userID, &email, &req.InvitedBy,
		&req.Status, &tokenHash, &expiresAt, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		req.UserID = &userID.String
	}
	if email.Valid {
		req.InviteEmail = &email.String
	}
	req.TokenHash = tokenHash.String
	if expiresAt.Valid {
		t := expiresAt.Time
		req.ExpiresAt = &t
	}
	return &req, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
