package entity

type Property struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Name      string             `json:"name"`
	Address   string             `json:"address"`
	Suppliers []PropertySupplier `json:"suppliers,omitempty"`
}

// PropertySupplier links a property to a supplier account.
type PropertySupplier struct {
	PropertyID string `json:"property_id"`
	SupplierID string `json:"supplier_id"`
	ContractID string `json:"contract_id,omitempty"`
	Enabled    bool   `json:"enabled"`
}

// PropertyContractMapping groups the properties served by one supplier login.
type PropertyContractMapping struct {
	PropertyID string
	SupplierID string
	ContractID string
}
