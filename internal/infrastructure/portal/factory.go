package portal

import (
	"fmt"

	"github.com/wekeepgrowing/billsync/internal/domain/portal"
	"github.com/wekeepgrowing/billsync/internal/domain/supplier"
	"go.uber.org/zap"
)

// DefaultUserAgent is sent to portals that reject unknown clients.
const DefaultUserAgent = "Mozilla/5.0 (compatible; billsync/1.0)"

// Factory creates a fresh HTTP session per supplier task.
type Factory struct {
	timeouts  Timeouts
	userAgent string
	logger    *zap.Logger
}

// NewFactory creates a new session factory
func NewFactory(timeouts Timeouts, logger *zap.Logger) *Factory {
	return &Factory{
		timeouts:  timeouts,
		userAgent: DefaultUserAgent,
		logger:    logger,
	}
}

// NewSession returns a session with its own cookie jar and connections.
func (f *Factory) NewSession(cfg *supplier.Config) (portal.Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("supplier config is required")
	}
	return newHTTPSession(cfg, f.timeouts, f.userAgent, f.logger)
}
