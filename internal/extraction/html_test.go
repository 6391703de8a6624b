package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	"github.com/wekeepgrowing/billsync/internal/domain/supplier"
	"go.uber.org/zap"
)

const billsPage = `<html><body>
<div id="facturi">
<table>
  <tr><th>Nr</th><th>Total</th><th>Scadenta</th></tr>
  <tr class="factura-row">
    <td class="nr">F-1001</td><td class="total">442,38 lei</td><td class="due">20.05.2024</td>
    <td class="contract">CTR-7</td>
    <td><a href="/docs/F-1001.pdf">PDF</a></td>
  </tr>
  <tr class="factura-row">
    <td class="nr">F-1002</td><td class="total">1.234,56 lei</td><td class="due">2024-06-20</td>
    <td class="contract">CTR-8</td>
    <td><a href="javascript:void(0)" onclick="openpdf('F-1002')">PDF</a></td>
  </tr>
  <tr class="factura-row">
    <td class="nr"></td><td class="total">-</td><td class="due"></td>
  </tr>
</table>
</div>
</body></html>`

func billsConfig() *supplier.Config {
	return &supplier.Config{
		ID:       "enel",
		BaseURL:  "https://portal.example.com",
		Category: "electricity",
		Currency: "RON",
		Bills: supplier.BillsConfig{
			URL: "/facturi",
			Fields: supplier.BillFields{
				BillNumber: &supplier.FieldRule{Selector: "td.nr"},
				Amount:     &supplier.FieldRule{Selector: "td.total"},
				DueDate:    &supplier.FieldRule{Selector: "td.due"},
				ContractID: &supplier.FieldRule{Selector: "td.contract"},
			},
		},
	}
}

func TestExtractHTML(t *testing.T) {
	e := NewExtractor(nil, zap.NewNop())

	result, err := e.ExtractHTML([]byte(billsPage), "https://portal.example.com/facturi", billsConfig())
	require.NoError(t, err)
	require.Len(t, result.Bills, 2)
	require.Len(t, result.Skipped, 1)

	first := result.Bills[0]
	assert.Equal(t, "F-1001", first.BillNumber)
	assert.Equal(t, "442.38", first.Amount.String())
	assert.Equal(t, "2024-05-20", first.DueDate.Format("2006-01-02"))
	assert.Equal(t, "CTR-7", first.ContractID)
	assert.Equal(t, "electricity", first.Category)
	assert.Equal(t, "RON", first.Currency)
	assert.Equal(t, "https://portal.example.com/docs/F-1001.pdf", first.PDFLink)
	assert.Equal(t, entity.PDFLinkURL, first.PDFLinkKind)
	assert.Equal(t, "442,38 lei", first.Raw[supplier.FieldAmount])

	second := result.Bills[1]
	assert.Equal(t, "1234.56", second.Amount.String())
	assert.Equal(t, "2024-06-20", second.DueDate.Format("2006-01-02"))
	assert.Equal(t, entity.PDFLinkScript, second.PDFLinkKind)

	assert.Equal(t, "EXTRACTION_PARTIAL", result.Skipped[0].Type)
}

func TestExtractHTMLNeverReturnsInvalidBills(t *testing.T) {
	e := NewExtractor(nil, zap.NewNop())
	for _, page := range []string{billsPage, "<html><body><table><tr><td>x</td></tr></table></body></html>", ""} {
		result, err := e.ExtractHTML([]byte(page), "https://portal.example.com", billsConfig())
		require.NoError(t, err)
		for _, bill := range result.Bills {
			assert.True(t, bill.BillNumber != "" || bill.Amount != nil)
		}
	}
}

func TestExtractHTMLHeuristicsAndHeader(t *testing.T) {
	page := `<html><body>
<h2 class="doc">Factura nr. HDR-77</h2>
<div class="invoices">
  <div class="invoice-item"><span>Total 120,00</span><span>Scadenta 01.07.2024</span></div>
  <div class="invoice-item"><span>Total 80,50</span><span>Scadenta 01.08.2024</span></div>
</div></body></html>`

	cfg := billsConfig()
	cfg.Bills.ItemTag = "div"
	cfg.Bills.Header = &supplier.FieldRule{Selector: "h2.doc", Pattern: `nr\.\s*(\S+)`}
	cfg.Bills.Fields = supplier.BillFields{
		Amount:  &supplier.FieldRule{Pattern: `Total\s+([\d.,]+)`},
		DueDate: &supplier.FieldRule{Pattern: `Scadenta\s+(\S+)`},
	}

	result, err := NewExtractor(nil, zap.NewNop()).ExtractHTML([]byte(page), cfg.BaseURL, cfg)
	require.NoError(t, err)
	require.Len(t, result.Bills, 2)
	assert.Equal(t, "HDR-77", result.Bills[0].BillNumber)
	assert.Equal(t, "HDR-77", result.Bills[1].BillNumber)
	assert.Equal(t, "120", result.Bills[0].Amount.String())
	assert.Equal(t, "80.5", result.Bills[1].Amount.String())
	assert.Equal(t, "2024-08-01", result.Bills[1].DueDate.Format("2006-01-02"))
}

func TestExtractHTMLConfiguredPDFPattern(t *testing.T) {
	cfg := billsConfig()
	cfg.Bills.Fields.PDFLink = &supplier.FieldRule{Selector: "a", Pattern: `openpdf\('([^']+)'\)`}

	result, err := NewExtractor(nil, zap.NewNop()).ExtractHTML([]byte(billsPage), "https://portal.example.com/facturi/", cfg)
	require.NoError(t, err)
	require.Len(t, result.Bills, 2)
	assert.Equal(t, entity.PDFLinkURL, result.Bills[1].PDFLinkKind)
	assert.Equal(t, "https://portal.example.com/facturi/F-1002", result.Bills[1].PDFLink)
}

func TestClassifyLink(t *testing.T) {
	kind, target := ClassifyLink("javascript:download(1)", "")
	assert.Equal(t, entity.PDFLinkScript, kind)
	assert.Equal(t, "javascript:download(1)", target)

	kind, target = ClassifyLink("#", "getPdf(3)")
	assert.Equal(t, entity.PDFLinkScript, kind)
	assert.Equal(t, "getPdf(3)", target)

	kind, _ = ClassifyLink("", "")
	assert.Equal(t, entity.PDFLinkNone, kind)

	kind, target = ClassifyLink("/f.pdf", "")
	assert.Equal(t, entity.PDFLinkURL, kind)
	assert.Equal(t, "/f.pdf", target)
}
