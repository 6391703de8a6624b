package model

import (
	"time"

	"github.com/google/uuid"
)

// Property represents an internally managed property
type Property struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Address   string    `gorm:"type:text" json:"address"`
	CreatedAt time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:now()" json:"updated_at"`

	// Relations
	Suppliers []PropertySupplier `gorm:"foreignKey:PropertyID" json:"suppliers,omitempty"`
}

// TableName specifies the table name for GORM
func (Property) TableName() string {
	return "properties"
}

// PropertySupplier links a property to a supplier account
type PropertySupplier struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID uuid.UUID `gorm:"column:property_id;type:uuid;not null;uniqueIndex:idx_property_supplier" json:"property_id"`
	SupplierID string    `gorm:"column:supplier_id;size:100;not null;uniqueIndex:idx_property_supplier" json:"supplier_id"`
	ContractID *string   `gorm:"column:contract_id;size:100" json:"contract_id,omitempty"`
	Enabled    bool      `gorm:"default:true" json:"enabled"`
	CreatedAt  time.Time `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (PropertySupplier) TableName() string {
	return "property_suppliers"
}

// UserSettings holds per-user preferences
type UserSettings struct {
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	DefaultCurrency string    `gorm:"column:default_currency;size:3" json:"default_currency"`
	UpdatedAt       time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (UserSettings) TableName() string {
	return "user_settings"
}
