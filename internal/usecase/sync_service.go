package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/billsync/internal/domain/errors"
	"github.com/wekeepgrowing/billsync/internal/domain/portal"
	"github.com/wekeepgrowing/billsync/internal/domain/repository"
	"github.com/wekeepgrowing/billsync/internal/domain/supplier"
	"github.com/wekeepgrowing/billsync/internal/extraction"
	"github.com/wekeepgrowing/billsync/internal/matching"
	appErrors "github.com/wekeepgrowing/billsync/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultScope is used when a discover request names none.
const DefaultScope = "properties"

var errRunCancelled = errors.New("sync run cancelled")

// SupplierCatalog looks up supplier configurations.
type SupplierCatalog interface {
	Get(id string) (*supplier.Config, bool)
}

// CredentialSource opens the stored portal login of a user.
type CredentialSource interface {
	Open(ctx context.Context, userID, supplierID string) (username, password string, err error)
}

// PDFTextExtractor converts PDF bytes to plain text.
type PDFTextExtractor interface {
	ExtractText(ctx context.Context, pdf []byte) (string, error)
}

type SyncOptions struct {
	MaxConcurrentSessions int
	// SupplierTimeout bounds a whole supplier task; zero means no ceiling
	SupplierTimeout time.Duration
}

type SyncDependencies struct {
	Properties  repository.PropertyRepository
	Catalog     SupplierCatalog
	Credentials CredentialSource
	Sessions    portal.Factory
	Extractor   *extraction.Extractor
	Resolver    *BillResolver
	Dedup       *DedupService
	// PDFText is optional
	PDFText  PDFTextExtractor
	Registry *SessionRegistry
}

type DiscoverRequest struct {
	UserID      string
	Scope       string
	PropertyIDs []string
	// SupplierIDs restricts the run; empty means every linked supplier
	SupplierIDs []string
}

type RunSummary struct {
	SyncID    string                           `json:"sync_id"`
	Status    RunStatus                        `json:"status"`
	Totals    entity.SupplierCounts            `json:"totals"`
	Suppliers map[string]entity.SupplierCounts `json:"suppliers"`
	Failed    []string                         `json:"failed,omitempty"`
}

type startData struct {
	Scope      string   `json:"scope"`
	Suppliers  []string `json:"suppliers"`
	Properties int      `json:"properties"`
}

type startingData struct {
	Name       string `json:"name"`
	Properties int    `json:"properties"`
}

type processingData struct {
	Step        string                       `json:"step"`
	PropertyID  string                       `json:"property_id,omitempty"`
	Association *entity.AssociationCandidate `json:"association,omitempty"`
	Unit        *entity.SubUnit              `json:"unit,omitempty"`
	URL         string                       `json:"url,omitempty"`
}

type errorData struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
}

// supplierJob is the work of one supplier task.
type supplierJob struct {
	supplierID string
	properties []*entity.Property
	targets    []ResolveTarget
}

// SyncService runs discover sessions and commits their results.
type SyncService struct {
	deps   SyncDependencies
	opts   SyncOptions
	logger *zap.Logger
}

func NewSyncService(deps SyncDependencies, opts SyncOptions, logger *zap.Logger) *SyncService {
	if opts.MaxConcurrentSessions < 1 {
		opts.MaxConcurrentSessions = 1
	}
	if deps.Resolver == nil {
		deps.Resolver = NewBillResolver()
	}
	if deps.Registry == nil {
		deps.Registry = NewSessionRegistry()
	}
	if deps.Extractor == nil {
		deps.Extractor = extraction.NewExtractor(nil, logger)
	}
	return &SyncService{deps: deps, opts: opts, logger: logger}
}

// Discover runs a dry sync for the requested properties and streams its
// progress to sink. Nothing is persisted. Only malformed requests return an
// error; supplier failures become error events.
func (s *SyncService) Discover(ctx context.Context, req DiscoverRequest, sink EventSink) (*RunSummary, error) {
	if req.UserID == "" {
		return nil, appErrors.InvalidArgument("user id is required")
	}
	if len(req.PropertyIDs) == 0 {
		return nil, appErrors.InvalidArgument("at least one property id is required")
	}

	jobs, propertyCount, err := s.plan(ctx, req)
	if err != nil {
		return nil, err
	}

	scope := req.Scope
	if scope == "" {
		scope = DefaultScope
	}
	session, err := s.deps.Registry.Create(scope, req.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to start sync run")
	}
	defer s.deps.Registry.Remove(session)
	session.transition(RunRunning)

	stop := context.AfterFunc(ctx, session.Cancel)
	defer stop()

	logger := s.logger.With(zap.String("sync_id", session.ID), zap.String("user_id", req.UserID))
	logger.Info("Sync run started", zap.Int("suppliers", len(jobs)), zap.Int("properties", propertyCount))

	stream := newEventStream(sink, session, logger)
	supplierIDs := make([]string, 0, len(jobs))
	for _, job := range jobs {
		supplierIDs = append(supplierIDs, job.supplierID)
	}
	stream.emit(entity.EventStart, "", startData{Scope: scope, Suppliers: supplierIDs, Properties: propertyCount})

	sem := semaphore.NewWeighted(int64(s.opts.MaxConcurrentSessions))
	var g errgroup.Group
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)
			s.runSupplier(ctx, session, stream, job, logger)
			return nil
		})
	}
	_ = g.Wait()

	status := RunCompleted
	failed := session.FailedSuppliers()
	switch {
	case session.Cancelled():
		status = RunCancelled
	case len(jobs) > 0 && len(failed) == len(jobs):
		status = RunFailed
	}
	session.transition(status)

	summary := &RunSummary{
		SyncID:    session.ID,
		Status:    status,
		Totals:    session.Totals(),
		Suppliers: session.Counts(),
		Failed:    failed,
	}
	if status == RunCancelled {
		stream.emit(entity.EventCancelled, "", summary)
	} else {
		stream.emit(entity.EventComplete, "", summary)
	}

	logger.Info("Sync run finished",
		zap.String("status", string(status)),
		zap.Int("found", summary.Totals.Found),
		zap.Int("unresolved", summary.Totals.Unresolved),
		zap.Strings("failed", failed),
	)
	return summary, nil
}

// Cancel flags the run. It reports whether a live run of userID matched.
func (s *SyncService) Cancel(userID, scope, syncID string) bool {
	if scope == "" {
		scope = DefaultScope
	}
	found := s.deps.Registry.Cancel(userID, scope, syncID)
	s.logger.Info("Sync cancel requested",
		zap.String("sync_id", syncID),
		zap.String("scope", scope),
		zap.Bool("found", found),
	)
	return found
}

// Commit persists a previously discovered, possibly edited, bill set.
func (s *SyncService) Commit(ctx context.Context, userID string, items []entity.DiscoveredBill) (*CommitSummary, error) {
	return s.deps.Dedup.Commit(ctx, userID, items)
}

// plan groups the requested properties by linked supplier.
func (s *SyncService) plan(ctx context.Context, req DiscoverRequest) ([]*supplierJob, int, error) {
	allowed := make(map[string]bool, len(req.SupplierIDs))
	for _, id := range req.SupplierIDs {
		allowed[id] = true
	}

	jobs := make(map[string]*supplierJob)
	seen := make(map[string]bool)
	for _, propertyID := range req.PropertyIDs {
		if seen[propertyID] {
			continue
		}
		seen[propertyID] = true

		property, err := s.deps.Properties.GetByID(ctx, propertyID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, 0, appErrors.NotFound("property %s not found", propertyID)
			}
			return nil, 0, appErrors.Wrap(err, "failed to load property")
		}
		if property.UserID != req.UserID {
			return nil, 0, appErrors.NotFound("property %s not found", propertyID)
		}

		links, err := s.deps.Properties.ListSuppliers(ctx, propertyID)
		if err != nil {
			return nil, 0, appErrors.Wrap(err, "failed to load property suppliers")
		}
		for _, link := range links {
			if !link.Enabled || (len(allowed) > 0 && !allowed[link.SupplierID]) {
				continue
			}
			job, ok := jobs[link.SupplierID]
			if !ok {
				job = &supplierJob{supplierID: link.SupplierID}
				jobs[link.SupplierID] = job
			}
			job.properties = append(job.properties, property)
			job.targets = append(job.targets, ResolveTarget{
				PropertyID: property.ID,
				Address:    property.Address,
				ContractID: link.ContractID,
			})
		}
	}

	ordered := make([]*supplierJob, 0, len(jobs))
	for _, job := range jobs {
		ordered = append(ordered, job)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].supplierID < ordered[j].supplierID })
	return ordered, len(seen), nil
}

func (s *SyncService) runSupplier(ctx context.Context, session *SyncSession, stream *eventStream, job *supplierJob, logger *zap.Logger) {
	logger = logger.With(zap.String("supplier", job.supplierID))
	var counts entity.SupplierCounts

	err := s.discoverSupplier(ctx, session, stream, job, &counts, logger)
	switch {
	case err == nil:
		session.record(job.supplierID, counts, false)
		stream.emit(entity.EventCompleted, job.supplierID, counts)
	case errors.Is(err, errRunCancelled) || session.Cancelled():
		session.record(job.supplierID, counts, false)
		logger.Info("Supplier task stopped by cancellation")
	default:
		session.record(job.supplierID, counts, true)
		data := errorData{Type: domainErrors.TypeOf(err), Message: err.Error()}
		var syncErr *domainErrors.SyncError
		if errors.As(err, &syncErr) {
			data.StatusCode = syncErr.StatusCode
		}
		logger.Warn("Supplier task failed", zap.String("error_type", data.Type), zap.Error(err))
		stream.emit(entity.EventError, job.supplierID, data)
	}
}

func (s *SyncService) discoverSupplier(
	ctx context.Context,
	session *SyncSession,
	stream *eventStream,
	job *supplierJob,
	counts *entity.SupplierCounts,
	logger *zap.Logger,
) error {
	cfg, ok := s.deps.Catalog.Get(job.supplierID)
	if !ok {
		stream.emit(entity.EventStarting, job.supplierID, startingData{Name: job.supplierID, Properties: len(job.properties)})
		return domainErrors.NewConfigMissingError(job.supplierID)
	}
	stream.emit(entity.EventStarting, job.supplierID, startingData{Name: cfg.DisplayName(), Properties: len(job.properties)})

	if s.opts.SupplierTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.SupplierTimeout)
		defer cancel()
	}

	username, password, err := s.deps.Credentials.Open(ctx, session.UserID, job.supplierID)
	if err != nil {
		return err
	}

	ps, err := s.deps.Sessions.NewSession(cfg)
	if err != nil {
		return domainErrors.NewNetworkError(job.supplierID, 0, err)
	}

	if session.Cancelled() {
		return errRunCancelled
	}
	stream.emit(entity.EventProcessing, job.supplierID, processingData{Step: "login"})
	if err := ps.Login(ctx, username, password); err != nil {
		return err
	}

	emitBatch := func(scraped []entity.ScrapedBill) error {
		return s.discoverBatch(ctx, session, stream, cfg, ps, job, counts, scraped, logger)
	}
	if cfg.HasTenants() {
		return s.fetchTenantBills(ctx, session, stream, cfg, ps, job, counts, emitBatch)
	}
	scraped, err := s.fetchBills(ctx, session, stream, cfg, ps, "", "", counts)
	if err != nil {
		return err
	}
	return emitBatch(scraped)
}

// discoverBatch enriches, resolves and annotates one fetched batch, then
// streams its bills.
func (s *SyncService) discoverBatch(
	ctx context.Context,
	session *SyncSession,
	stream *eventStream,
	cfg *supplier.Config,
	ps portal.Session,
	job *supplierJob,
	counts *entity.SupplierCounts,
	scraped []entity.ScrapedBill,
	logger *zap.Logger,
) error {
	if len(scraped) == 0 {
		return nil
	}
	if err := s.enrichFromPDF(ctx, session, cfg, ps, scraped, logger); err != nil {
		return err
	}

	resolved := s.deps.Resolver.Resolve(scraped, job.targets, ResolveOptions{
		ContractIsAssociation: cfg.Matching.ContractIsAssociation,
		NoContractSentinel:    cfg.Matching.NoContractSentinel,
	})
	counts.Found += len(scraped)
	counts.Resolved += resolved.Resolved
	counts.Unresolved += resolved.Unresolved

	bills := resolved.Bills
	for i := range bills {
		bills[i].SupplierID = job.supplierID
	}
	for _, target := range job.targets {
		if session.Cancelled() {
			return errRunCancelled
		}
		if err := s.deps.Dedup.Annotate(ctx, target.PropertyID, bills); err != nil {
			return err
		}
	}

	for i := range bills {
		if session.Cancelled() {
			return errRunCancelled
		}
		switch bills[i].Action {
		case entity.BillActionCreate:
			counts.Create++
		case entity.BillActionUpdate:
			counts.Update++
		case entity.BillActionUnchanged:
			counts.Unchanged++
		}
		stream.emit(entity.EventBillDiscovered, job.supplierID, bills[i])
	}
	return nil
}

// fetchTenantBills walks the associations matched for each property and
// reads the bills of every distinct tenant once. Each tenant's bills go to
// emit as soon as they are read.
func (s *SyncService) fetchTenantBills(
	ctx context.Context,
	session *SyncSession,
	stream *eventStream,
	cfg *supplier.Config,
	ps portal.Session,
	job *supplierJob,
	counts *entity.SupplierCounts,
	emit func([]entity.ScrapedBill) error,
) error {
	tenant := cfg.Tenant
	stream.emit(entity.EventProcessing, cfg.ID, processingData{Step: "list_associations", URL: tenant.Associations.URL})
	doc, err := ps.Fetch(ctx, tenant.Associations.URL)
	if err != nil {
		return err
	}
	candidates, err := s.deps.Extractor.ExtractAssociations(doc.Body, &tenant.Associations)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return domainErrors.NewExtractionPartialError(cfg.ID, "portal lists no associations", "")
	}

	matcher := matching.NewMatcher(cfg.Matching.StopWords...)

	// Every property is matched before any bill is read, so the resolver
	// sees all association ids from the first batch on.
	type tenantKey struct{ association, unit string }
	var order []tenantKey
	seen := make(map[tenantKey]bool)
	for i, property := range job.properties {
		if session.Cancelled() {
			return errRunCancelled
		}

		ranked := matcher.Match(propertyQuery(property), candidates)
		best := ranked[0]
		job.targets[i].AssociationID = best.ID
		stream.emit(entity.EventProcessing, cfg.ID, processingData{
			Step:        "match_association",
			PropertyID:  property.ID,
			Association: &best,
		})

		unitID, err := s.refineUnit(ctx, session, stream, cfg, ps, matcher, property, best.ID)
		if err != nil {
			return err
		}

		key := tenantKey{best.ID, unitID}
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
	}

	for _, key := range order {
		if session.Cancelled() {
			return errRunCancelled
		}
		ps.SelectTenant(key.association, key.unit)
		bills, err := s.fetchBills(ctx, session, stream, cfg, ps, key.association, key.unit, counts)
		if err != nil {
			return err
		}
		if err := emit(bills); err != nil {
			return err
		}
	}
	return nil
}

func (s *SyncService) refineUnit(
	ctx context.Context,
	session *SyncSession,
	stream *eventStream,
	cfg *supplier.Config,
	ps portal.Session,
	matcher *matching.Matcher,
	property *entity.Property,
	associationID string,
) (string, error) {
	units := cfg.Tenant.Units
	if units == nil || units.URL == "" {
		return "", nil
	}
	if session.Cancelled() {
		return "", errRunCancelled
	}

	doc, err := ps.Fetch(ctx, expandURL(units.URL, associationID, ""))
	if err != nil {
		return "", err
	}
	list, err := s.deps.Extractor.ExtractUnits(doc.Body, units, associationID)
	if err != nil {
		return "", err
	}
	unit, ok := matcher.RefineUnit(propertyQuery(property), list)
	if !ok {
		return "", nil
	}
	stream.emit(entity.EventProcessing, cfg.ID, processingData{
		Step:       "match_unit",
		PropertyID: property.ID,
		Unit:       &unit,
	})
	return unit.ID, nil
}

func (s *SyncService) fetchBills(
	ctx context.Context,
	session *SyncSession,
	stream *eventStream,
	cfg *supplier.Config,
	ps portal.Session,
	associationID, unitID string,
	counts *entity.SupplierCounts,
) ([]entity.ScrapedBill, error) {
	if session.Cancelled() {
		return nil, errRunCancelled
	}

	target := expandURL(cfg.Bills.URL, associationID, unitID)
	stream.emit(entity.EventProcessing, cfg.ID, processingData{Step: "fetch_bills", URL: target})
	doc, err := ps.Fetch(ctx, target)
	if err != nil {
		return nil, err
	}

	result, err := s.deps.Extractor.Extract(doc.Body, doc.URL, cfg)
	if err != nil {
		return nil, err
	}
	counts.Skipped += len(result.Skipped)

	for i := range result.Bills {
		if result.Bills[i].AssociationID == "" {
			result.Bills[i].AssociationID = associationID
		}
	}
	return result.Bills, nil
}

// enrichFromPDF downloads linked PDFs when the supplier asks for PDF text
// and fills the fields the listing lacked. PDF failures only cost the
// enrichment.
func (s *SyncService) enrichFromPDF(
	ctx context.Context,
	session *SyncSession,
	cfg *supplier.Config,
	ps portal.Session,
	bills []entity.ScrapedBill,
	logger *zap.Logger,
) error {
	if !cfg.PDF.ExtractText {
		return nil
	}

	for i := range bills {
		b := &bills[i]
		if b.PDFLinkKind != entity.PDFLinkURL || b.PDFLink == "" {
			continue
		}
		if session.Cancelled() {
			return errRunCancelled
		}

		pdf, err := ps.FetchBinary(ctx, b.PDFLink)
		if err != nil {
			logger.Warn("Failed to download bill PDF", zap.String("url", b.PDFLink), zap.Error(err))
			continue
		}
		b.PDF = pdf

		if s.deps.PDFText == nil || !missingFields(b) {
			continue
		}
		text, err := s.deps.PDFText.ExtractText(ctx, pdf)
		if err != nil {
			logger.Warn("Failed to read bill PDF text", zap.String("url", b.PDFLink), zap.Error(err))
			continue
		}
		mergeMissing(b, s.deps.Extractor.TextFields(text, cfg))
	}
	return nil
}

func missingFields(b *entity.ScrapedBill) bool {
	return b.BillNumber == "" || b.Amount == nil || b.DueDate == nil
}

func mergeMissing(dst *entity.ScrapedBill, src entity.ScrapedBill) {
	if dst.BillNumber == "" {
		dst.BillNumber = src.BillNumber
	}
	if dst.Amount == nil {
		dst.Amount = src.Amount
	}
	if dst.DueDate == nil {
		dst.DueDate = src.DueDate
	}
	if dst.IssueDate == nil {
		dst.IssueDate = src.IssueDate
	}
	if dst.ContractID == "" {
		dst.ContractID = src.ContractID
	}
	if dst.IBAN == "" {
		dst.IBAN = src.IBAN
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
	if dst.Label == "" {
		dst.Label = src.Label
	}
}

// propertyQuery is the text matched against portal associations: the
// address, or the name for properties without one.
func propertyQuery(p *entity.Property) string {
	if address := strings.TrimSpace(p.Address); address != "" {
		return address
	}
	return strings.TrimSpace(p.Name)
}

func expandURL(raw, associationID, apartmentID string) string {
	out := strings.ReplaceAll(raw, supplier.PlaceholderAssociationID, associationID)
	return strings.ReplaceAll(out, supplier.PlaceholderApartmentID, apartmentID)
}
