package supplier

import "strings"

var (
	DefaultContainerSelectors = []string{
		"#bills", ".bills", "#invoices", ".invoices", "#facturi", ".facturi", "table", "main", "body",
	}
	DefaultItemTag        = "tr"
	DefaultItemClassHints = []string{"bill", "invoice", "factura", "item", "row"}
	DefaultDateLayouts    = []string{"02.01.2006", "2006-01-02", "02/01/2006", "2.1.2006", "02-01-2006"}
	DefaultLogoutSelector = `a[href*="logout"], a[href*="logoff"], a[href*="signout"], form[action*="logout"]`
	DefaultUsernameField  = "username"
	DefaultPasswordField  = "password"
)

// Placeholders substituted into cookie templates and unit list URLs.
const (
	PlaceholderAssociationID = "{association_id}"
	PlaceholderApartmentID   = "{apartment_id}"
)

func (c *Config) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// HasTenants reports portals that list associations.
func (c *Config) HasTenants() bool {
	return c.Tenant != nil && c.Tenant.Associations.URL != ""
}

func (c *LoginConfig) UsernameField() string {
	if c.Username != "" {
		return c.Username
	}
	return DefaultUsernameField
}

func (c *LoginConfig) PasswordField() string {
	if c.Password != "" {
		return c.Password
	}
	return DefaultPasswordField
}

func (c *LoginConfig) LogoutSelector() string {
	if c.Logout != "" {
		return c.Logout
	}
	return DefaultLogoutSelector
}

func (c *BillsConfig) DocumentFormat() Format {
	if c.Format == "" {
		return FormatHTML
	}
	return c.Format
}

// ContainerSelectors returns the configured container, else the fallbacks.
func (c *BillsConfig) ContainerSelectors() []string {
	if c.ContainerSelector != "" {
		return []string{c.ContainerSelector}
	}
	return DefaultContainerSelectors
}

func (c *BillsConfig) ItemTagName() string {
	if c.ItemTag != "" {
		return strings.ToLower(c.ItemTag)
	}
	return DefaultItemTag
}

func (c *BillsConfig) Layouts() []string {
	if len(c.DateLayouts) > 0 {
		return c.DateLayouts
	}
	return DefaultDateLayouts
}

func (c *ListConfig) DocumentFormat() Format {
	if c.Format == "" {
		return FormatHTML
	}
	return c.Format
}

// ByName returns the rule for a bill field name such as "due_date".
func (f *BillFields) ByName(name string) *FieldRule {
	switch name {
	case FieldBillNumber:
		return f.BillNumber
	case FieldAmount:
		return f.Amount
	case FieldCurrency:
		return f.Currency
	case FieldDueDate:
		return f.DueDate
	case FieldIssueDate:
		return f.IssueDate
	case FieldContractID:
		return f.ContractID
	case FieldIBAN:
		return f.IBAN
	case FieldDescription:
		return f.Description
	case FieldLabel:
		return f.Label
	case FieldPDFLink:
		return f.PDFLink
	}
	return nil
}

func (f *LabelFields) ByName(name string) *LabelRule {
	switch name {
	case FieldBillNumber:
		return f.BillNumber
	case FieldAmount:
		return f.Amount
	case FieldDueDate:
		return f.DueDate
	case FieldIssueDate:
		return f.IssueDate
	case FieldContractID:
		return f.ContractID
	case FieldIBAN:
		return f.IBAN
	case FieldDescription:
		return f.Description
	case FieldLabel:
		return f.Label
	}
	return nil
}

// Empty reports whether no label rule is set.
func (f *LabelFields) Empty() bool {
	for _, name := range TextFields {
		if f.ByName(name) != nil {
			return false
		}
	}
	return true
}

// Bill field names.
const (
	FieldBillNumber  = "bill_number"
	FieldAmount      = "amount"
	FieldCurrency    = "currency"
	FieldDueDate     = "due_date"
	FieldIssueDate   = "issue_date"
	FieldContractID  = "contract_id"
	FieldIBAN        = "iban"
	FieldDescription = "description"
	FieldLabel       = "label"
	FieldPDFLink     = "pdf_link"
)

// ItemFields are extracted from each bill item, in order.
var ItemFields = []string{
	FieldBillNumber, FieldAmount, FieldCurrency, FieldDueDate, FieldIssueDate,
	FieldContractID, FieldIBAN, FieldDescription, FieldLabel, FieldPDFLink,
}

// TextFields support label/offset extraction.
var TextFields = []string{
	FieldBillNumber, FieldAmount, FieldDueDate, FieldIssueDate,
	FieldContractID, FieldIBAN, FieldDescription, FieldLabel,
}
