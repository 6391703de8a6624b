package model

import (
	"time"

	"github.com/google/uuid"
)

// SupplierCredential stores an AES-GCM encrypted portal login
type SupplierCredential struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_credential_user_supplier" json:"user_id"`
	SupplierID     string    `gorm:"column:supplier_id;size:100;not null;uniqueIndex:idx_credential_user_supplier" json:"supplier_id"`
	UsernameCipher string    `gorm:"column:username_cipher;type:text;not null" json:"-"`
	UsernameIV     string    `gorm:"column:username_iv;size:32;not null" json:"-"`
	PasswordCipher string    `gorm:"column:password_cipher;type:text;not null" json:"-"`
	PasswordIV     string    `gorm:"column:password_iv;size:32;not null" json:"-"`
	CreatedAt      time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt      time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (SupplierCredential) TableName() string {
	return "supplier_credentials"
}
