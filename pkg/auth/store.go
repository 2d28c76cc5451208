package auth

import "context"

// AccountStore is the credential store for regular users. Implementations
// return ErrNotFound for missing rows and ErrConflict for a duplicate email.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, account *Account) error
}

// AdminStore is the credential store for administrators
type AdminStore interface {
	GetByID(ctx context.Context, id string) (*AdminAccount, error)
	GetByEmail(ctx context.Context, email string) (*AdminAccount, error)
	Create(ctx context.Context, admin *AdminAccount) error
}

// InvitationBinder rebinds pending email invitations to a newly registered
// account. Matching on email is case-insensitive.
type InvitationBinder interface {
	BindPendingEmail(ctx context.Context, email, userID string) (int, error)
}
