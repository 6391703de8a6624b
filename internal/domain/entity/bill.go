package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Bill struct {
	ID            string          `json:"id"`
	PropertyID    string          `json:"property_id"`
	SupplierID    string          `json:"supplier_id"`
	BillNumber    string          `json:"bill_number"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	IssueDate     *time.Time      `json:"issue_date,omitempty"`
	ContractID    string          `json:"contract_id,omitempty"`
	IBAN          string          `json:"iban,omitempty"`
	Status        BillStatus      `json:"status"`
	AttachmentKey string          `json:"attachment_key,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type BillStatus string

const (
	BillStatusPending BillStatus = "pending"
	BillStatusOverdue BillStatus = "overdue"
	BillStatusPaid    BillStatus = "paid"
)

// StatusFor derives the open status of a bill from its due date.
// Paid bills keep their status.
func StatusFor(current BillStatus, due *time.Time, today time.Time) BillStatus {
	if current == BillStatusPaid {
		return BillStatusPaid
	}
	if due == nil {
		if current == "" {
			return BillStatusPending
		}
		return current
	}
	if dateOnly(*due).Before(dateOnly(today)) {
		return BillStatusOverdue
	}
	return BillStatusPending
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
