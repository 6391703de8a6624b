package extraction

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	"github.com/wekeepgrowing/billsync/internal/domain/supplier"
)

// DefaultPDFLinkSelector is used when a supplier configures no pdf_link rule.
const DefaultPDFLinkSelector = `a[href*="pdf"], a[onclick*="pdf"], a[href*="download"]`

// ExtractHTML extracts bill items from an HTML bill list.
func (e *Extractor) ExtractHTML(body []byte, baseURL string, cfg *supplier.Config) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bill document: %w", err)
	}

	base, _ := url.Parse(baseURL)
	bills := &cfg.Bills
	container := findContainer(doc, bills.ContainerSelectors())
	header := e.headerBillNumber(doc.Selection, bills.Header)

	result := &Result{}
	findItems(container, bills).Each(func(_ int, item *goquery.Selection) {
		var bill entity.ScrapedBill
		for _, field := range supplier.ItemFields {
			if field == supplier.FieldPDFLink {
				continue
			}
			if value, ok := e.selectValue(item, bills.Fields.ByName(field)); ok {
				assign(&bill, field, value, bills.Layouts())
			}
		}
		e.pdfLink(&bill, item, bills.Fields.PDFLink, base)
		e.finish(result, bill, header, cfg, item.Text())
	})

	return result, nil
}

func findContainer(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, selector := range selectors {
		if found := doc.Find(selector).First(); found.Length() > 0 {
			return found
		}
	}
	return doc.Selection
}

// findItems applies the configured selector, else the tag and class heuristic.
func findItems(container *goquery.Selection, bills *supplier.BillsConfig) *goquery.Selection {
	if bills.ItemSelector != "" {
		return container.Find(bills.ItemSelector)
	}

	tagged := container.Find(bills.ItemTagName()).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return !isHeaderRow(s)
	})

	hinted := tagged.FilterFunction(func(_ int, s *goquery.Selection) bool {
		class := strings.ToLower(s.AttrOr("class", ""))
		for _, hint := range supplier.DefaultItemClassHints {
			if strings.Contains(class, hint) {
				return true
			}
		}
		return false
	})
	if hinted.Length() > 0 {
		return hinted
	}

	return tagged.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Children().Length() > 0 && strings.TrimSpace(s.Text()) != ""
	})
}

func isHeaderRow(s *goquery.Selection) bool {
	return s.Find("th").Length() > 0 && s.Find("td").Length() == 0
}

// selectValue tries the structural selector, then the pattern against the
// item text.
func (e *Extractor) selectValue(item *goquery.Selection, rule *supplier.FieldRule) (string, bool) {
	if rule == nil {
		return "", false
	}

	if rule.Selector != "" || rule.Attr != "" {
		target := item
		if rule.Selector != "" {
			target = item.Find(rule.Selector).First()
		}
		if target.Length() > 0 {
			var value string
			if rule.Attr != "" {
				value = target.AttrOr(rule.Attr, "")
			} else {
				value = target.Text()
			}
			value = collapseSpace(value)

			if rule.Pattern == "" {
				if value != "" {
					return value, true
				}
			} else if m, ok := e.applyPattern(rule.Pattern, value); ok {
				return m, true
			}
		}
	}

	if rule.Pattern != "" {
		return e.applyPattern(rule.Pattern, collapseSpace(item.Text()))
	}
	return "", false
}

func (e *Extractor) headerBillNumber(doc *goquery.Selection, rule *supplier.FieldRule) string {
	if rule == nil {
		return ""
	}
	value, _ := e.selectValue(doc, rule)
	return value
}

// pdfLink records the bill's PDF link. Script-triggered links are flagged
// since they cannot be fetched without running page scripts. A configured
// pattern that captures a path from href or onclick makes the link fetchable.
func (e *Extractor) pdfLink(bill *entity.ScrapedBill, item *goquery.Selection, rule *supplier.FieldRule, base *url.URL) {
	selector := DefaultPDFLinkSelector
	attr := "href"
	if rule != nil {
		if rule.Selector != "" {
			selector = rule.Selector
		}
		if rule.Attr != "" {
			attr = rule.Attr
		}
	}

	link := item.Find(selector).First()
	if link.Length() == 0 {
		if !item.Is(selector) {
			return
		}
		link = item
	}

	href := strings.TrimSpace(link.AttrOr(attr, ""))
	onclick := strings.TrimSpace(link.AttrOr("onclick", ""))

	if rule != nil && rule.Pattern != "" {
		if path, ok := e.applyPattern(rule.Pattern, href+" "+onclick); ok {
			bill.PDFLink = resolve(base, path)
			bill.PDFLinkKind = entity.PDFLinkURL
			return
		}
	}

	kind, target := ClassifyLink(href, onclick)
	switch kind {
	case entity.PDFLinkURL:
		bill.PDFLink = resolve(base, target)
	case entity.PDFLinkScript:
		bill.PDFLink = target
	default:
		return
	}
	bill.PDFLinkKind = kind
}

// ClassifyLink decides whether an anchor is a plain URL or script-triggered.
func ClassifyLink(href, onclick string) (entity.PDFLinkKind, string) {
	lower := strings.ToLower(href)
	switch {
	case strings.HasPrefix(lower, "javascript:"):
		return entity.PDFLinkScript, href
	case href == "" || href == "#":
		if onclick != "" {
			return entity.PDFLinkScript, onclick
		}
		return entity.PDFLinkNone, ""
	default:
		return entity.PDFLinkURL, href
	}
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil || base == nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
