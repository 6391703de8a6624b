package extraction

import (
	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	"github.com/wekeepgrowing/billsync/internal/domain/supplier"
)

// ExtractText reads one bill from plain reflowed text (a statement or PDF
// text) with the configured label rules.
func (e *Extractor) ExtractText(text string, cfg *supplier.Config) *Result {
	bill := e.TextFields(text, cfg)
	result := &Result{}
	e.finish(result, bill, "", cfg, text)
	return result
}

// TextFields extracts label-rule fields without validating the bill.
func (e *Extractor) TextFields(text string, cfg *supplier.Config) entity.ScrapedBill {
	var bill entity.ScrapedBill
	labels := &cfg.Bills.Labels
	for _, field := range supplier.TextFields {
		rule := labels.ByName(field)
		if rule == nil {
			continue
		}
		if value, ok := ReadLabel(e.locator, text, rule.Label, rule.Offset); ok {
			assign(&bill, field, value, cfg.Bills.Layouts())
		}
	}
	return bill
}
