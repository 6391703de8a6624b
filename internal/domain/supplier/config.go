// Package supplier describes the declarative per-supplier portal configuration.
//
// Optional settings are resolved by the accessor methods in this order: the
// value set in the supplier file, then the package-level fallback.
package supplier

// Format is the shape of a bill document.
type Format string

const (
	FormatHTML Format = "html"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config is the immutable configuration of one supplier portal.
type Config struct {
	ID       string         `yaml:"id"`
	Name     string         `yaml:"name"`
	BaseURL  string         `yaml:"base_url"`
	Category string         `yaml:"category"`
	Currency string         `yaml:"currency"`
	Login    LoginConfig    `yaml:"login"`
	Bills    BillsConfig    `yaml:"bills"`
	Tenant   *TenantConfig  `yaml:"tenant"`
	Matching MatchingConfig `yaml:"matching"`
	PDF      PDFConfig      `yaml:"pdf"`
}

type LoginConfig struct {
	URL string `yaml:"url"`
	// FormSelector picks the login form; default is the first form holding a password input
	FormSelector           string            `yaml:"form_selector"`
	Username               string            `yaml:"username_field"`
	Password               string            `yaml:"password_field"`
	ExtraFields            map[string]string `yaml:"extra_fields"`
	SuccessRedirectPattern string            `yaml:"success_redirect_pattern"`
	SuccessIndicator       *Indicator        `yaml:"success_indicator"`
	Logout                 string            `yaml:"logout_selector"`
}

type IndicatorKind string

const (
	IndicatorSelector IndicatorKind = "selector"
	IndicatorURL      IndicatorKind = "url"
	IndicatorText     IndicatorKind = "text"
)

// Indicator is evidence of a logged-in page.
type Indicator struct {
	Kind  IndicatorKind `yaml:"kind"`
	Value string        `yaml:"value"`
}

// FieldRule locates one value. HTML documents use Selector (text, or Attr
// when set) and fall back to Pattern against the item text. JSON documents
// use Path (gjson syntax). Pattern also post-filters a selected value; its
// first capture group wins when present.
type FieldRule struct {
	Selector string `yaml:"selector"`
	Attr     string `yaml:"attr"`
	Pattern  string `yaml:"pattern"`
	Path     string `yaml:"path"`
}

// LabelRule reads the value found Offset lines below Label.
type LabelRule struct {
	Label  string `yaml:"label"`
	Offset int    `yaml:"offset"`
}

// BillFields are the per-field extraction rules of a bill item.
type BillFields struct {
	BillNumber  *FieldRule `yaml:"bill_number"`
	Amount      *FieldRule `yaml:"amount"`
	Currency    *FieldRule `yaml:"currency"`
	DueDate     *FieldRule `yaml:"due_date"`
	IssueDate   *FieldRule `yaml:"issue_date"`
	ContractID  *FieldRule `yaml:"contract_id"`
	IBAN        *FieldRule `yaml:"iban"`
	Description *FieldRule `yaml:"description"`
	Label       *FieldRule `yaml:"label"`
	PDFLink     *FieldRule `yaml:"pdf_link"`
}

// LabelFields are the label/offset rules used on plain text.
type LabelFields struct {
	BillNumber  *LabelRule `yaml:"bill_number"`
	Amount      *LabelRule `yaml:"amount"`
	DueDate     *LabelRule `yaml:"due_date"`
	IssueDate   *LabelRule `yaml:"issue_date"`
	ContractID  *LabelRule `yaml:"contract_id"`
	IBAN        *LabelRule `yaml:"iban"`
	Description *LabelRule `yaml:"description"`
	Label       *LabelRule `yaml:"label"`
}

type BillsConfig struct {
	URL               string `yaml:"url"`
	Format            Format `yaml:"format"`
	ContainerSelector string `yaml:"container_selector"`
	ItemSelector      string `yaml:"item_selector"`
	ItemTag           string `yaml:"item_tag"`
	// ItemsPath is the gjson path of the bill array in JSON documents
	ItemsPath string `yaml:"items_path"`
	// Header extracts a document-level bill number shared by all items
	Header      *FieldRule  `yaml:"header_bill_number"`
	Fields      BillFields  `yaml:"fields"`
	Labels      LabelFields `yaml:"labels"`
	DateLayouts []string    `yaml:"date_layouts"`
}

// ListConfig extracts a list of portal entities (associations or units).
type ListConfig struct {
	URL          string     `yaml:"url"`
	Format       Format     `yaml:"format"`
	ItemSelector string     `yaml:"item_selector"`
	ItemsPath    string     `yaml:"items_path"`
	ID           *FieldRule `yaml:"id"`
	Name         *FieldRule `yaml:"name"`
	Address      *FieldRule `yaml:"address"`
	Number       *FieldRule `yaml:"number"`
}

// CookieTemplate is a tenant cookie; {association_id} and {apartment_id}
// are substituted in Value.
type CookieTemplate struct {
	Name   string `yaml:"name"`
	Value  string `yaml:"value"`
	Path   string `yaml:"path"`
	Domain string `yaml:"domain"`
}

// TenantConfig is set for portals where one login serves many associations.
type TenantConfig struct {
	Associations    ListConfig       `yaml:"associations"`
	Units           *ListConfig      `yaml:"units"`
	CookieTemplates []CookieTemplate `yaml:"cookie_templates"`
}

type MatchingConfig struct {
	// ContractIsAssociation marks suppliers whose contract ids are association ids
	ContractIsAssociation bool `yaml:"contract_is_association"`
	// NoContractSentinel is a placeholder contract id that never matches
	NoContractSentinel string   `yaml:"no_contract_sentinel"`
	StopWords          []string `yaml:"stop_words"`
}

type PDFConfig struct {
	// ExtractText enriches bills missing fields from their PDF text
	ExtractText bool `yaml:"extract_text"`
}
