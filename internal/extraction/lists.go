package extraction

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	"github.com/wekeepgrowing/billsync/internal/domain/supplier"
	"github.com/wekeepgrowing/billsync/internal/matching"
)

type record struct {
	id, name, address, number string
}

// ExtractAssociations reads the portal's association list in discovery order.
func (e *Extractor) ExtractAssociations(body []byte, list *supplier.ListConfig) ([]entity.AssociationCandidate, error) {
	records, err := e.records(body, list)
	if err != nil {
		return nil, err
	}

	candidates := make([]entity.AssociationCandidate, 0, len(records))
	for _, r := range records {
		candidates = append(candidates, entity.AssociationCandidate{
			ID:      r.id,
			Name:    r.name,
			Address: r.address,
		})
	}
	return candidates, nil
}

// ExtractUnits reads the sub-units listed for one association.
func (e *Extractor) ExtractUnits(body []byte, list *supplier.ListConfig, associationID string) ([]entity.SubUnit, error) {
	records, err := e.records(body, list)
	if err != nil {
		return nil, err
	}

	units := make([]entity.SubUnit, 0, len(records))
	for _, r := range records {
		number := r.number
		if number == "" {
			number = matching.UnitNumber(r.name)
		}
		units = append(units, entity.SubUnit{
			ID:            r.id,
			AssociationID: associationID,
			Name:          r.name,
			Number:        number,
		})
	}
	return units, nil
}

func (e *Extractor) records(body []byte, list *supplier.ListConfig) ([]record, error) {
	if list.DocumentFormat() == supplier.FormatJSON {
		return e.jsonRecords(body, list)
	}
	return e.htmlRecords(body, list)
}

func (e *Extractor) htmlRecords(body []byte, list *supplier.ListConfig) ([]record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse list document: %w", err)
	}

	selector := list.ItemSelector
	if selector == "" {
		selector = "option"
	}

	var records []record
	doc.Find(selector).Each(func(_ int, item *goquery.Selection) {
		r := record{}
		if v, ok := e.selectValue(item, list.ID); ok {
			r.id = v
		} else {
			r.id = strings.TrimSpace(item.AttrOr("value", item.AttrOr("data-id", "")))
		}
		if v, ok := e.selectValue(item, list.Name); ok {
			r.name = v
		} else {
			r.name = collapseSpace(item.Text())
		}
		r.address, _ = e.selectValue(item, list.Address)
		r.number, _ = e.selectValue(item, list.Number)

		if r.id != "" {
			records = append(records, r)
		}
	})
	return records, nil
}

func (e *Extractor) jsonRecords(body []byte, list *supplier.ListConfig) ([]record, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("list document is not valid JSON")
	}

	items := gjson.ParseBytes(body)
	if list.ItemsPath != "" {
		items = items.Get(list.ItemsPath)
	}

	path := func(rule *supplier.FieldRule, fallback string) *supplier.FieldRule {
		if rule != nil && rule.Path != "" {
			return rule
		}
		return &supplier.FieldRule{Path: fallback}
	}
	idRule := path(list.ID, "id")
	nameRule := path(list.Name, "name")
	addressRule := path(list.Address, "address")
	numberRule := path(list.Number, "number")

	var records []record
	items.ForEach(func(_, item gjson.Result) bool {
		r := record{
			id:      e.jsonValue(item, idRule),
			name:    e.jsonValue(item, nameRule),
			address: e.jsonValue(item, addressRule),
			number:  e.jsonValue(item, numberRule),
		}
		if r.id != "" {
			records = append(records, r)
		}
		return true
	})
	return records, nil
}
