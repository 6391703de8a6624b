package entity

import "time"

// Credential holds a user's encrypted portal login for one supplier.
type Credential struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	SupplierID     string    `json:"supplier_id"`
	UsernameCipher string    `json:"-"`
	UsernameIV     string    `json:"-"`
	PasswordCipher string    `json:"-"`
	PasswordIV     string    `json:"-"`
	UpdatedAt      time.Time `json:"updated_at"`
}
