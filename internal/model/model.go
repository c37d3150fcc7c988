// Package model defines domain entities shared by the session, sync, and transport layers.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shweta76555/deskcli/internal/errs"
)

// Identity is the normalized, claim-derived representation of who is
// logged in. It is produced by the session resolver; consumers hold it as
// an immutable snapshot and receive a fresh value on every re-resolution.
type Identity struct {
	SubjectID   string // empty when no subject claim resolved
	DisplayName string
	Email       string
	Role        string
	ExpiresAt   time.Time // zero when the token carries no exp claim
	IsExpired   bool
	RawClaims   map[string]any
}

// Profile is the authoritative server-side view of the current user,
// fetched during session enrichment. Authoritative fields override
// token-derived ones.
type Profile struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ProjectItem is a server-owned record from the project API. The client
// caches an ordered sequence per view and re-fetches after every mutation.
type ProjectItem struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UserID      int64     `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ItemDraft is the client-side payload for creating or updating a project item.
type ItemDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validate runs the local form checks. A draft with an empty title never
// reaches the wire.
func (d ItemDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", errs.ErrValidation)
	}
	return nil
}

// User is a server-owned account record, visible to admins.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
