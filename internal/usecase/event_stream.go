package usecase

import (
	"sync"

	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	"go.uber.org/zap"
)

// EventSink receives the progress events of a run.
type EventSink interface {
	Send(event entity.Event) error
}

// eventStream serializes the events of one run. Once the run is cancelled
// it drops processing and bill_discovered events.
type eventStream struct {
	mu      sync.Mutex
	sink    EventSink
	session *SyncSession
	logger  *zap.Logger
	broken  bool
}

func newEventStream(sink EventSink, session *SyncSession, logger *zap.Logger) *eventStream {
	return &eventStream{sink: sink, session: session, logger: logger}
}

func (s *eventStream) emit(name entity.EventName, supplierID string, data interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.broken {
		return
	}
	if s.session.Cancelled() && (name == entity.EventProcessing || name == entity.EventBillDiscovered) {
		return
	}

	err := s.sink.Send(entity.Event{
		Name:     name,
		SyncID:   s.session.ID,
		Supplier: supplierID,
		Data:     data,
	})
	if err != nil {
		// nobody is listening anymore
		s.broken = true
		s.session.Cancel()
		s.logger.Warn("Event consumer gone, cancelling run",
			zap.String("sync_id", s.session.ID),
			zap.String("event", string(name)),
			zap.Error(err),
		)
	}
}
