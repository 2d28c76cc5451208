package auth

import "time"

// Role is the role carried by a principal.
type Role string

const (
	RoleUser          Role = "user"
	RoleConsultant    Role = "consultant"
	RoleContractor    Role = "contractor"
	RoleSubContractor Role = "sub-contractor"
	RoleFinance       Role = "finance"

	// RoleAdmin is never stored on an account. It only exists inside the
	// role claim of tokens issued by AdminLogin.
	RoleAdmin Role = "admin"
)

// DefaultRole is assigned to accounts created through Register.
const DefaultRole = RoleUser

// Valid reports whether r is one of the roles an Account may hold.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleConsultant, RoleContractor, RoleSubContractor, RoleFinance:
		return true
	}
	return false
}

// Status of an account record
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// PrincipalKind distinguishes the store a principal was resolved from
type PrincipalKind string

const (
	KindUser  PrincipalKind = "user"
	KindAdmin PrincipalKind = "admin"
)

// Account is a registered end user.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Company      string    `json:"company,omitempty"`
	Role         Role      `json:"role"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AdminAccount is an administrative principal. It deliberately has no
// role column.
type AdminAccount struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the identity attached to an authenticated request
type Principal struct {
	ID    string        `json:"id"`
	Email string        `json:"email"`
	Name  string        `json:"name"`
	Role  Role          `json:"role"`
	Kind  PrincipalKind `json:"kind"`
}

// IsConsultant is a convenience derived from Role. It carries no
// authority of its own.
func (p *Principal) IsConsultant() bool {
	return p != nil && p.Role == RoleConsultant
}

// HasRole checks if the principal holds one of the given roles
func (p *Principal) HasRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// PublicProfile is the client-visible view of an account
type PublicProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile returns the public view of the account
func (a *Account) Profile() PublicProfile {
	return PublicProfile{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Phone:     a.Phone,
		Company:   a.Company,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}

// Principal converts an account to a request principal
func (a *Account) Principal() *Principal {
	return &Principal{ID: a.ID, Email: a.Email, Name: a.Name, Role: a.Role, Kind: KindUser}
}

// TokenPair is returned by Register and Login
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	User         PublicProfile `json:"user"`
}

// RegisterRequest carries the fields accepted at registration
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Company  string `json:"company,omitempty"`
}

// MinPasswordLength is enforced by Register
const MinPasswordLength = 8
