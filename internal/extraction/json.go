package extraction

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	"github.com/wekeepgrowing/billsync/internal/domain/supplier"
)

// ExtractJSON extracts bills from a JSON document. items_path selects the
// bill array; each field rule's path is evaluated against one item.
func (e *Extractor) ExtractJSON(body []byte, cfg *supplier.Config) (*Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("bill document is not valid JSON")
	}

	bills := &cfg.Bills
	root := gjson.ParseBytes(body)
	items := root
	if bills.ItemsPath != "" {
		items = root.Get(bills.ItemsPath)
	}

	var header string
	if bills.Header != nil && bills.Header.Path != "" {
		header = e.jsonValue(root, bills.Header)
	}

	result := &Result{}
	each := func(item gjson.Result) {
		var bill entity.ScrapedBill
		for _, field := range supplier.ItemFields {
			rule := bills.Fields.ByName(field)
			if rule == nil || rule.Path == "" {
				continue
			}
			if field == supplier.FieldAmount {
				e.jsonAmount(&bill, item, rule)
				continue
			}
			if field == supplier.FieldPDFLink {
				if link := e.jsonValue(item, rule); link != "" {
					bill.PDFLink = link
					bill.PDFLinkKind = entity.PDFLinkURL
				}
				continue
			}
			assign(&bill, field, e.jsonValue(item, rule), bills.Layouts())
		}
		e.finish(result, bill, header, cfg, item.Raw)
	}

	if items.IsArray() {
		items.ForEach(func(_, item gjson.Result) bool {
			each(item)
			return true
		})
	} else if items.IsObject() {
		each(items)
	}
	return result, nil
}

func (e *Extractor) jsonValue(item gjson.Result, rule *supplier.FieldRule) string {
	value := strings.TrimSpace(item.Get(rule.Path).String())
	if value == "" || rule.Pattern == "" {
		return value
	}
	m, _ := e.applyPattern(rule.Pattern, value)
	return m
}

// jsonAmount reads numbers with a fraction as major units; integers and
// strings follow the minor-unit convention of ParseAmount.
func (e *Extractor) jsonAmount(bill *entity.ScrapedBill, item gjson.Result, rule *supplier.FieldRule) {
	v := item.Get(rule.Path)
	if !v.Exists() {
		return
	}
	if v.Type == gjson.Number && strings.ContainsAny(v.Raw, ".eE") && rule.Pattern == "" {
		if amount, err := decimal.NewFromString(v.Raw); err == nil {
			amount = amount.Round(2)
			bill.Amount = &amount
			if bill.Raw == nil {
				bill.Raw = make(map[string]string)
			}
			bill.Raw[supplier.FieldAmount] = v.Raw
			return
		}
	}
	assign(bill, supplier.FieldAmount, e.jsonValue(item, rule), nil)
}
