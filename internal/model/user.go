package model

import "time"

// User represents a row in the `users` table. Every user belongs to exactly
// one company; the Role field holds either ADMIN or MEMBER and controls
// access to company-wide operations such as invoice consolidation.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	CompanyID    – company the user belongs to.
//	Email        – unique email address.
//	Name         – display name shown in comments and mention pickers.
//	PasswordHash – bcrypt hashed password.
//	Role         – role name (ADMIN or MEMBER).
//	IsActive     – whether the account is active.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	CompanyID    uint64    // users.company_id
	Email        string    // users.email
	Name         string    // users.name
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. The plain
// token is never stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// MentionableUser is the union row returned by the mention picker: company
// team members plus accepted external project collaborators, deduplicated
// with team membership taking priority.
type MentionableUser struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Type      string `json:"type"` // "team" or "collaborator"
	CompanyID uint64 `json:"company_id,omitempty"`
}
