package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PDFLinkKind tells whether a bill's PDF link can be fetched directly.
type PDFLinkKind string

const (
	PDFLinkNone   PDFLinkKind = ""
	PDFLinkURL    PDFLinkKind = "url"
	PDFLinkScript PDFLinkKind = "script"
)

// ScrapedBill is one bill as extracted from a supplier document.
type ScrapedBill struct {
	BillNumber    string            `json:"bill_number,omitempty"`
	Amount        *decimal.Decimal  `json:"amount,omitempty"`
	Currency      string            `json:"currency,omitempty"`
	DueDate       *time.Time        `json:"due_date,omitempty"`
	IssueDate     *time.Time        `json:"issue_date,omitempty"`
	ContractID    string            `json:"contract_id,omitempty"`
	AssociationID string            `json:"association_id,omitempty"`
	Label         string            `json:"label,omitempty"`
	Description   string            `json:"description,omitempty"`
	Category      string            `json:"category,omitempty"`
	IBAN          string            `json:"iban,omitempty"`
	PDFLink       string            `json:"pdf_link,omitempty"`
	PDFLinkKind   PDFLinkKind       `json:"pdf_link_kind,omitempty"`
	PDF           []byte            `json:"pdf,omitempty"`
	Raw           map[string]string `json:"raw,omitempty"`
}

// Valid reports whether the bill carries a bill number or an amount.
func (b *ScrapedBill) Valid() bool {
	return b.BillNumber != "" || b.Amount != nil
}

// BillAction is the dry-run outcome of comparing a bill with the store.
type BillAction string

const (
	BillActionCreate     BillAction = "create"
	BillActionUpdate     BillAction = "update"
	BillActionUnchanged  BillAction = "unchanged"
	BillActionUnresolved BillAction = "unresolved"
)

// MatchRule names the resolver rule that assigned a bill to a property.
type MatchRule string

const (
	MatchByContract     MatchRule = "contract"
	MatchByAssociation  MatchRule = "association"
	MatchByUnit         MatchRule = "unit"
	MatchBySingleTarget MatchRule = "single_target"
)

// DiscoveredBill is a scraped bill after resolution and dedup annotation.
// It is what discover streams and what commit accepts back.
type DiscoveredBill struct {
	ScrapedBill
	SupplierID     string     `json:"supplier_id"`
	PropertyID     string     `json:"property_id,omitempty"`
	MatchedBy      MatchRule  `json:"matched_by,omitempty"`
	Unresolved     bool       `json:"unresolved,omitempty"`
	Action         BillAction `json:"action,omitempty"`
	ExistingBillID string     `json:"existing_bill_id,omitempty"`
}
