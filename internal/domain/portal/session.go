// Package portal defines an authenticated session against a supplier portal.
package portal

import (
	"context"

	"github.com/wekeepgrowing/billsync/internal/domain/supplier"
)

// Document is a fetched portal page.
type Document struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Session is stateful and must not be shared between concurrent tasks.
type Session interface {
	// Login authenticates and remembers the credentials for one re-login on 401.
	Login(ctx context.Context, username, password string) error
	// Fetch loads a page; relative URLs are resolved against the portal base URL.
	Fetch(ctx context.Context, url string) (*Document, error)
	FetchBinary(ctx context.Context, url string) ([]byte, error)
	// SelectTenant writes the tenant cookies. It returns false, writing
	// nothing, when associationID is empty.
	SelectTenant(associationID, apartmentID string) bool
	BaseURL() string
}

// Factory creates one fresh session per supplier task.
type Factory interface {
	NewSession(cfg *supplier.Config) (Session, error)
}
