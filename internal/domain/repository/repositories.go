package repository

import (
	"context"
	"errors"

	"github.com/wekeepgrowing/billsync/internal/domain/entity"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("record not found")

// PropertyRepository defines property lookups
type PropertyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Property, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Property, error)
	// ListSuppliers returns the enabled supplier links of a property
	ListSuppliers(ctx context.Context, propertyID string) ([]entity.PropertySupplier, error)
	Save(ctx context.Context, property *entity.Property) error
	Delete(ctx context.Context, id string) error
}

// BillRepository defines persisted bill operations
type BillRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Bill, error)
	ListByProperty(ctx context.Context, propertyID string) ([]*entity.Bill, error)
	Create(ctx context.Context, bill *entity.Bill) error
	Update(ctx context.Context, bill *entity.Bill) error
	Delete(ctx context.Context, id string) error
}

// CredentialRepository stores encrypted supplier logins
type CredentialRepository interface {
	Get(ctx context.Context, userID, supplierID string) (*entity.Credential, error)
	Save(ctx context.Context, credential *entity.Credential) error
}

// CurrencyRepository resolves a user's default currency
type CurrencyRepository interface {
	DefaultCurrency(ctx context.Context, userID string) (string, error)
}
