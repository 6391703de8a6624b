package usecase

import (
	"strings"

	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	"github.com/wekeepgrowing/billsync/internal/matching"
)

// ResolveTarget is one property served by the supplier login of a batch.
type ResolveTarget struct {
	PropertyID string
	Address    string
	ContractID string
	// AssociationID is the portal association matched for the property
	AssociationID string
}

type ResolveOptions struct {
	ContractIsAssociation bool
	NoContractSentinel    string
}

type ResolveResult struct {
	Bills      []entity.DiscoveredBill
	Resolved   int
	Unresolved int
}

// BillResolver assigns scraped bills to the properties of a batch.
type BillResolver struct{}

func NewBillResolver() *BillResolver {
	return &BillResolver{}
}

// Resolve assigns every bill to at most one target. The rules are tried in
// order and the first one yielding exactly one target wins: contract id,
// association id (when the supplier uses one namespace for both), then the
// unit number in the bill label against the one in the property address.
// Bills no rule settles are returned unresolved.
func (r *BillResolver) Resolve(bills []entity.ScrapedBill, targets []ResolveTarget, opts ResolveOptions) ResolveResult {
	result := ResolveResult{Bills: make([]entity.DiscoveredBill, 0, len(bills))}

	for _, bill := range bills {
		d := entity.DiscoveredBill{ScrapedBill: bill}

		if target, rule, ok := r.resolveOne(&bill, targets, opts); ok {
			d.PropertyID = target.PropertyID
			d.MatchedBy = rule
			result.Resolved++
		} else {
			d.Unresolved = true
			d.Action = entity.BillActionUnresolved
			result.Unresolved++
		}
		result.Bills = append(result.Bills, d)
	}
	return result
}

func (r *BillResolver) resolveOne(bill *entity.ScrapedBill, targets []ResolveTarget, opts ResolveOptions) (ResolveTarget, entity.MatchRule, bool) {
	if len(targets) == 0 {
		return ResolveTarget{}, "", false
	}

	contract := contractValue(bill.ContractID, opts)

	if contract != "" {
		if t, ok := unique(targets, func(t ResolveTarget) bool {
			return contractValue(t.ContractID, opts) == contract
		}); ok {
			return t, entity.MatchByContract, true
		}
	}

	if opts.ContractIsAssociation {
		key := contract
		if key == "" {
			key = strings.TrimSpace(bill.AssociationID)
		}
		if key != "" {
			if t, ok := unique(targets, func(t ResolveTarget) bool {
				return t.AssociationID != "" && strings.EqualFold(strings.TrimSpace(t.AssociationID), key)
			}); ok {
				return t, entity.MatchByAssociation, true
			}
		}
	}

	if unit := matching.UnitNumber(bill.Label); unit != "" {
		if t, ok := unique(targets, func(t ResolveTarget) bool {
			return matching.UnitNumber(t.Address) == unit
		}); ok {
			return t, entity.MatchByUnit, true
		}
	}

	// A lone target without its own contract id owns everything its login returns.
	if len(targets) == 1 && contractValue(targets[0].ContractID, opts) == "" {
		return targets[0], entity.MatchBySingleTarget, true
	}

	return ResolveTarget{}, "", false
}

// contractValue is the comparable form of a contract id; the sentinel and
// blanks compare as absent.
func contractValue(id string, opts ResolveOptions) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if opts.NoContractSentinel != "" && strings.EqualFold(id, strings.TrimSpace(opts.NoContractSentinel)) {
		return ""
	}
	return strings.ToUpper(id)
}

func unique(targets []ResolveTarget, match func(ResolveTarget) bool) (ResolveTarget, bool) {
	var found ResolveTarget
	n := 0
	for _, t := range targets {
		if match(t) {
			found = t
			n++
		}
	}
	return found, n == 1
}
