// Package extraction turns fetched supplier documents into bill records
// following the supplier's declarative configuration.
package extraction

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	domainErrors "github.com/wekeepgrowing/billsync/internal/domain/errors"
	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	"github.com/wekeepgrowing/billsync/internal/domain/supplier"
	"go.uber.org/zap"
)

const snippetLimit = 240

// Result holds the valid bills of a document and the items that were skipped.
type Result struct {
	Bills   []entity.ScrapedBill
	Skipped []*domainErrors.SyncError
}

// Extractor is safe for concurrent use.
type Extractor struct {
	locator  LabelLocator
	logger   *zap.Logger
	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

// NewExtractor uses a FlexibleLabelLocator when locator is nil.
func NewExtractor(locator LabelLocator, logger *zap.Logger) *Extractor {
	if locator == nil {
		locator = NewFlexibleLabelLocator()
	}
	return &Extractor{
		locator:  locator,
		logger:   logger,
		patterns: make(map[string]*regexp.Regexp),
	}
}

// Extract dispatches on the configured bill document format.
func (e *Extractor) Extract(body []byte, baseURL string, cfg *supplier.Config) (*Result, error) {
	switch cfg.Bills.DocumentFormat() {
	case supplier.FormatJSON:
		return e.ExtractJSON(body, cfg)
	case supplier.FormatText:
		return e.ExtractText(string(body), cfg), nil
	default:
		return e.ExtractHTML(body, baseURL, cfg)
	}
}

func (e *Extractor) regex(pattern string) *regexp.Regexp {
	e.mu.RLock()
	re, ok := e.patterns[pattern]
	e.mu.RUnlock()
	if ok {
		return re
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		e.logger.Warn("Invalid extraction pattern", zap.String("pattern", pattern), zap.Error(err))
	}

	e.mu.Lock()
	e.patterns[pattern] = re
	e.mu.Unlock()
	return re
}

// applyPattern returns the first capture group, or the whole match.
func (e *Extractor) applyPattern(pattern, text string) (string, bool) {
	re := e.regex(pattern)
	if re == nil {
		return "", false
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	for _, group := range m[1:] {
		if group != "" {
			return strings.TrimSpace(group), true
		}
	}
	return strings.TrimSpace(m[0]), m[0] != ""
}

// assign converts a raw field value onto the bill.
func assign(bill *entity.ScrapedBill, field, value string, layouts []string) {
	value = collapseSpace(value)
	if value == "" {
		return
	}
	if bill.Raw == nil {
		bill.Raw = make(map[string]string)
	}
	bill.Raw[field] = value

	switch field {
	case supplier.FieldBillNumber:
		bill.BillNumber = value
	case supplier.FieldAmount:
		if amount, ok := ParseAmount(value); ok {
			bill.Amount = &amount
		}
	case supplier.FieldCurrency:
		bill.Currency = strings.ToUpper(value)
	case supplier.FieldDueDate:
		if t, ok := ParseDate(value, layouts); ok {
			bill.DueDate = t
		}
	case supplier.FieldIssueDate:
		if t, ok := ParseDate(value, layouts); ok {
			bill.IssueDate = t
		}
	case supplier.FieldContractID:
		bill.ContractID = value
	case supplier.FieldIBAN:
		if iban := FindIBAN(value); iban != "" {
			bill.IBAN = iban
		}
	case supplier.FieldDescription:
		bill.Description = value
	case supplier.FieldLabel:
		bill.Label = value
	}
}

// finish backfills document-level values, then validates the bill.
func (e *Extractor) finish(result *Result, bill entity.ScrapedBill, header string, cfg *supplier.Config, snippet string) {
	if bill.BillNumber == "" && header != "" {
		bill.BillNumber = header
	}
	if bill.Category == "" {
		bill.Category = cfg.Category
	}
	if bill.Currency == "" {
		bill.Currency = cfg.Currency
	}

	if !bill.Valid() {
		skipped := domainErrors.NewExtractionPartialError(cfg.ID, "item has neither bill number nor amount", truncate(snippet))
		e.logger.Debug("Skipping bill item",
			zap.String("supplier", cfg.ID),
			zap.String("snippet", skipped.Snippet),
		)
		result.Skipped = append(result.Skipped, skipped)
		return
	}
	result.Bills = append(result.Bills, bill)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	s = collapseSpace(s)
	if len(s) <= snippetLimit {
		return s
	}
	cut := snippetLimit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func (r *Result) String() string {
	return fmt.Sprintf("%d bills, %d skipped", len(r.Bills), len(r.Skipped))
}
