package entity

import "strings"

// AssociationCandidate is a portal-side grouping entity (a managed building).
// Score 0 marks an unverified fallback.
type AssociationCandidate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Score    int    `json:"score"`
	Fallback bool   `json:"fallback,omitempty"`
}

// DisplayName joins name and address.
func (a AssociationCandidate) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(a.Name) + " " + strings.TrimSpace(a.Address))
}

// SubUnit is an apartment inside an association. Fallback marks a unit
// picked without a number or name match.
type SubUnit struct {
	ID            string `json:"id"`
	AssociationID string `json:"association_id"`
	Name          string `json:"name"`
	Number        string `json:"number,omitempty"`
	Score         int    `json:"score"`
	Fallback      bool   `json:"fallback,omitempty"`
}
