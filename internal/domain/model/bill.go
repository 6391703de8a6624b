package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillStatus is stored as the bill_status enum
type BillStatus string

const (
	BillStatusPending BillStatus = "pending"
	BillStatusOverdue BillStatus = "overdue"
	BillStatusPaid    BillStatus = "paid"
)

// Scan implements sql.Scanner
func (s *BillStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*s = BillStatus(v)
	case []byte:
		*s = BillStatus(v)
	case nil:
		*s = ""
	default:
		return fmt.Errorf("cannot scan %T into BillStatus", value)
	}
	return nil
}

// Value implements driver.Valuer
func (s BillStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Bill represents a persisted supplier bill
type Bill struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PropertyID    uuid.UUID       `gorm:"column:property_id;type:uuid;not null;index" json:"property_id"`
	SupplierID    string          `gorm:"column:supplier_id;size:100;not null;index" json:"supplier_id"`
	BillNumber    *string         `gorm:"column:bill_number;size:100" json:"bill_number,omitempty"`
	Category      string          `gorm:"size:50" json:"category"`
	Description   string          `gorm:"type:text" json:"description"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"amount"`
	Currency      string          `gorm:"size:3;default:'RON'" json:"currency"`
	DueDate       *time.Time      `gorm:"column:due_date;type:date" json:"due_date,omitempty"`
	IssueDate     *time.Time      `gorm:"column:issue_date;type:date" json:"issue_date,omitempty"`
	ContractID    *string         `gorm:"column:contract_id;size:100" json:"contract_id,omitempty"`
	IBAN          *string         `gorm:"column:iban;size:34" json:"iban,omitempty"`
	Status        BillStatus      `gorm:"type:bill_status;not null;default:'pending'" json:"status"`
	AttachmentKey *string         `gorm:"column:attachment_key;size:512" json:"attachment_key,omitempty"`
	CreatedAt     time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Bill) TableName() string {
	return "bills"
}
