package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	"github.com/wekeepgrowing/billsync/internal/domain/repository"
	appErrors "github.com/wekeepgrowing/billsync/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// AmountTolerance absorbs rounding differences between portal renderings
	AmountTolerance = "0.01"
	// DueDateWindow is how far apart two due dates of the same bill may be
	DueDateWindow = 5 * 24 * time.Hour
)

var amountTolerance = decimal.RequireFromString(AmountTolerance)

// AttachmentStore keeps bill PDFs and returns the stored object key.
type AttachmentStore interface {
	Put(ctx context.Context, propertyID, supplierID, billNumber string, pdf []byte) (string, error)
}

// CommitSummary reports what a commit wrote.
type CommitSummary struct {
	Created   int            `json:"created"`
	Updated   int            `json:"updated"`
	Unchanged int            `json:"unchanged"`
	Skipped   int            `json:"skipped"`
	Bills     []*entity.Bill `json:"bills"`
}

// DedupService reconciles discovered bills with the stored ones.
type DedupService struct {
	properties      repository.PropertyRepository
	bills           repository.BillRepository
	currencies      repository.CurrencyRepository
	attachments     AttachmentStore
	defaultCurrency string
	locks           *keyedMutex
	now             func() time.Time
	logger          *zap.Logger
}

// NewDedupService creates a dedup service. attachments may be nil, in which
// case PDF payloads are not stored.
func NewDedupService(
	properties repository.PropertyRepository,
	bills repository.BillRepository,
	currencies repository.CurrencyRepository,
	attachments AttachmentStore,
	defaultCurrency string,
	logger *zap.Logger,
) *DedupService {
	return &DedupService{
		properties:      properties,
		bills:           bills,
		currencies:      currencies,
		attachments:     attachments,
		defaultCurrency: defaultCurrency,
		locks:           newKeyedMutex(),
		now:             time.Now,
		logger:          logger,
	}
}

// FindMatch returns the stored bill candidate duplicates, or nil. Bills
// match on equal bill number and category, or on equal category and
// description with amounts within the tolerance and due dates within the
// window.
func (s *DedupService) FindMatch(candidate *entity.Bill, existing []*entity.Bill) *entity.Bill {
	number := strings.TrimSpace(candidate.BillNumber)
	if number != "" {
		for _, e := range existing {
			if strings.TrimSpace(e.BillNumber) == number && e.Category == candidate.Category {
				return e
			}
		}
	}

	if candidate.DueDate == nil {
		return nil
	}
	for _, e := range existing {
		if e.Category != candidate.Category || strings.TrimSpace(e.Description) != strings.TrimSpace(candidate.Description) {
			continue
		}
		if e.DueDate == nil || absDuration(e.DueDate.Sub(*candidate.DueDate)) > DueDateWindow {
			continue
		}
		if e.Amount.Sub(candidate.Amount).Abs().GreaterThan(amountTolerance) {
			continue
		}
		return e
	}
	return nil
}

// Apply copies the mutable fields of candidate onto existing and recomputes
// the open status. It reports whether anything changed.
func (s *DedupService) Apply(existing, candidate *entity.Bill, today time.Time) bool {
	changed := false

	if !existing.Amount.Equal(candidate.Amount) {
		existing.Amount = candidate.Amount
		changed = true
	}
	if candidate.DueDate != nil && !sameDate(existing.DueDate, candidate.DueDate) {
		existing.DueDate = candidate.DueDate
		changed = true
	}
	if candidate.IssueDate != nil && !sameDate(existing.IssueDate, candidate.IssueDate) {
		existing.IssueDate = candidate.IssueDate
		changed = true
	}
	changed = setIfPresent(&existing.BillNumber, candidate.BillNumber) || changed
	changed = setIfPresent(&existing.ContractID, candidate.ContractID) || changed
	changed = setIfPresent(&existing.IBAN, candidate.IBAN) || changed
	changed = setIfPresent(&existing.AttachmentKey, candidate.AttachmentKey) || changed

	status := entity.StatusFor(existing.Status, existing.DueDate, today)
	if status != existing.Status {
		existing.Status = status
		changed = true
	}
	return changed
}

// Annotate tags each resolved bill with the action a commit would take.
// Nothing is written.
func (s *DedupService) Annotate(ctx context.Context, propertyID string, bills []entity.DiscoveredBill) error {
	existing, err := s.bills.ListByProperty(ctx, propertyID)
	if err != nil {
		return fmt.Errorf("failed to list bills of property %s: %w", propertyID, err)
	}

	today := s.now()
	for i := range bills {
		b := &bills[i]
		if b.Unresolved || b.PropertyID != propertyID {
			continue
		}

		candidate := s.toBill(b, "")
		match := s.FindMatch(candidate, existing)
		if match == nil {
			b.Action = entity.BillActionCreate
			candidate.Status = entity.StatusFor("", candidate.DueDate, today)
			existing = append(existing, candidate)
			continue
		}

		preview := *match
		b.ExistingBillID = match.ID
		keepAmount(candidate, match, b)
		if s.Apply(&preview, candidate, today) {
			b.Action = entity.BillActionUpdate
		} else {
			b.Action = entity.BillActionUnchanged
		}
	}
	return nil
}

// Commit persists the given bills. Every property must belong to userID.
// Bills of one property are written sequentially, different properties
// concurrently. Committing the same input again updates in place.
func (s *DedupService) Commit(ctx context.Context, userID string, items []entity.DiscoveredBill) (*CommitSummary, error) {
	if userID == "" {
		return nil, appErrors.InvalidArgument("user id is required")
	}

	summary := &CommitSummary{Bills: []*entity.Bill{}}
	groups := make(map[string][]entity.DiscoveredBill)
	var order []string
	for _, item := range items {
		if item.PropertyID == "" || !item.Valid() {
			summary.Skipped++
			continue
		}
		if _, ok := groups[item.PropertyID]; !ok {
			order = append(order, item.PropertyID)
		}
		groups[item.PropertyID] = append(groups[item.PropertyID], item)
	}

	for _, propertyID := range order {
		if err := s.checkOwnership(ctx, userID, propertyID); err != nil {
			return nil, err
		}
	}

	currency := s.currencyFor(ctx, userID)

	var mu sync.Mutex
	var g errgroup.Group
	for _, propertyID := range order {
		propertyID := propertyID
		group := groups[propertyID]
		g.Go(func() error {
			result, err := s.commitProperty(ctx, propertyID, group, currency)
			mu.Lock()
			defer mu.Unlock()
			if result != nil {
				summary.Created += result.Created
				summary.Updated += result.Updated
				summary.Unchanged += result.Unchanged
				summary.Bills = append(summary.Bills, result.Bills...)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	s.logger.Info("Bills committed",
		zap.String("user_id", userID),
		zap.Int("properties", len(order)),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("unchanged", summary.Unchanged),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func (s *DedupService) commitProperty(ctx context.Context, propertyID string, items []entity.DiscoveredBill, currency string) (*CommitSummary, error) {
	unlock := s.locks.Lock(propertyID)
	defer unlock()

	existing, err := s.bills.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills of property %s: %w", propertyID, err)
	}

	result := &CommitSummary{}
	today := s.now()
	for i := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		item := &items[i]
		candidate := s.toBill(item, currency)
		if err := s.storeAttachment(ctx, candidate, item); err != nil {
			return result, err
		}

		match := s.FindMatch(candidate, existing)
		if match == nil {
			candidate.Status = entity.StatusFor("", candidate.DueDate, today)
			if err := s.bills.Create(ctx, candidate); err != nil {
				return result, fmt.Errorf("failed to create bill: %w", err)
			}
			existing = append(existing, candidate)
			result.Created++
			result.Bills = append(result.Bills, candidate)
			continue
		}

		keepAmount(candidate, match, item)
		if !s.Apply(match, candidate, today) {
			result.Unchanged++
			result.Bills = append(result.Bills, match)
			continue
		}
		if err := s.bills.Update(ctx, match); err != nil {
			return result, fmt.Errorf("failed to update bill %s: %w", match.ID, err)
		}
		result.Updated++
		result.Bills = append(result.Bills, match)
	}
	return result, nil
}

func (s *DedupService) storeAttachment(ctx context.Context, bill *entity.Bill, item *entity.DiscoveredBill) error {
	if s.attachments == nil || len(item.PDF) == 0 {
		return nil
	}
	key, err := s.attachments.Put(ctx, bill.PropertyID, bill.SupplierID, bill.BillNumber, item.PDF)
	if err != nil {
		return err
	}
	bill.AttachmentKey = key
	return nil
}

func (s *DedupService) checkOwnership(ctx context.Context, userID, propertyID string) error {
	property, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return appErrors.NotFound("property %s not found", propertyID)
		}
		return appErrors.Wrap(err, "failed to load property")
	}
	if property.UserID != userID {
		return appErrors.NotFound("property %s not found", propertyID)
	}
	return nil
}

// currencyFor resolves the fallback currency: the user's default, then the
// service default.
func (s *DedupService) currencyFor(ctx context.Context, userID string) string {
	if s.currencies != nil {
		currency, err := s.currencies.DefaultCurrency(ctx, userID)
		if err != nil {
			s.logger.Warn("Failed to load default currency", zap.String("user_id", userID), zap.Error(err))
		} else if currency != "" {
			return currency
		}
	}
	return s.defaultCurrency
}

func (s *DedupService) toBill(item *entity.DiscoveredBill, fallbackCurrency string) *entity.Bill {
	bill := &entity.Bill{
		PropertyID:  item.PropertyID,
		SupplierID:  item.SupplierID,
		BillNumber:  strings.TrimSpace(item.BillNumber),
		Category:    item.Category,
		Description: strings.TrimSpace(item.Description),
		Currency:    item.Currency,
		DueDate:     item.DueDate,
		IssueDate:   item.IssueDate,
		ContractID:  item.ContractID,
		IBAN:        item.IBAN,
	}
	if item.Amount != nil {
		bill.Amount = *item.Amount
	}
	if bill.Currency == "" {
		bill.Currency = fallbackCurrency
	}
	return bill
}

// keepAmount stops a bill listed without an amount from zeroing the stored one.
func keepAmount(candidate, stored *entity.Bill, item *entity.DiscoveredBill) {
	if item.Amount == nil {
		candidate.Amount = stored.Amount
	}
}

func setIfPresent(dst *string, value string) bool {
	if value == "" || *dst == value {
		return false
	}
	*dst = value
	return true
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
