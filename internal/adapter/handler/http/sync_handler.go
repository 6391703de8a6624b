package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	"github.com/wekeepgrowing/billsync/internal/infrastructure/streaming"
	"github.com/wekeepgrowing/billsync/internal/middleware/auth"
	"github.com/wekeepgrowing/billsync/internal/usecase"
	appErrors "github.com/wekeepgrowing/billsync/pkg/errors"
	"go.uber.org/zap"
)

// SyncRunner is the sync engine as seen by the HTTP layer.
type SyncRunner interface {
	Discover(ctx context.Context, req usecase.DiscoverRequest, sink usecase.EventSink) (*usecase.RunSummary, error)
	Cancel(userID, scope, syncID string) bool
	Commit(ctx context.Context, userID string, items []entity.DiscoveredBill) (*usecase.CommitSummary, error)
}

type SyncHandler struct {
	sync   SyncRunner
	relay  *streaming.RedisRelay
	logger *zap.Logger
}

// NewSyncHandler creates the sync handler. relay may be nil, which turns
// off event mirroring and the watch endpoint.
func NewSyncHandler(sync SyncRunner, relay *streaming.RedisRelay, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		sync:   sync,
		relay:  relay,
		logger: logger,
	}
}

type discoverRequest struct {
	Scope       string   `json:"scope" validate:"omitempty,max=64"`
	PropertyIDs []string `json:"property_ids" validate:"required,min=1,dive,required"`
	SupplierIDs []string `json:"supplier_ids" validate:"omitempty,dive,required"`
}

type cancelRequest struct {
	Scope  string `json:"scope" validate:"omitempty,max=64"`
	SyncID string `json:"sync_id" validate:"required"`
}

type commitRequest struct {
	Bills []entity.DiscoveredBill `json:"bills" validate:"required,min=1"`
}

// sseSink opens the event stream on the first event, so request errors
// found before the run starts still get a plain JSON response.
type sseSink struct {
	resp   http.ResponseWriter
	writer *streaming.SSEWriter
}

func (s *sseSink) Send(event entity.Event) error {
	if s.writer == nil {
		w, err := streaming.NewSSEWriter(s.resp)
		if err != nil {
			return err
		}
		s.writer = w
	}
	return s.writer.Send(event)
}

func (s *sseSink) started() bool {
	return s.writer != nil
}

// Discover handles POST /api/v1/sync/discover
func (h *SyncHandler) Discover(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var req discoverRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "property_ids must list at least one property"})
	}

	sink := &sseSink{resp: c.Response()}
	var events usecase.EventSink = sink
	if h.relay != nil {
		events = streaming.NewTee(sink, h.relay.UserSink(user.UserID))
	}

	summary, err := h.sync.Discover(c.Request().Context(), usecase.DiscoverRequest{
		UserID:      user.UserID,
		Scope:       req.Scope,
		PropertyIDs: req.PropertyIDs,
		SupplierIDs: req.SupplierIDs,
	}, events)
	if err != nil {
		if sink.started() {
			appErrors.LogError(h.logger, err, "Sync run failed after streaming started",
				zap.String("user_id", user.UserID))
			return nil
		}
		h.logger.Warn("Sync discover rejected",
			zap.String("user_id", user.UserID),
			zap.Error(err))
		return respondError(c, err)
	}

	h.logger.Info("Sync run streamed",
		zap.String("user_id", user.UserID),
		zap.String("sync_id", summary.SyncID),
		zap.String("status", string(summary.Status)),
	)
	return nil
}

// Cancel handles POST /api/v1/sync/cancel
func (h *SyncHandler) Cancel(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sync_id is required"})
	}

	found := h.sync.Cancel(user.UserID, req.Scope, req.SyncID)
	return c.JSON(http.StatusOK, echo.Map{"found": found})
}

// Commit handles POST /api/v1/sync/commit
func (h *SyncHandler) Commit(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var req commitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bills must not be empty"})
	}

	summary, err := h.sync.Commit(c.Request().Context(), user.UserID, req.Bills)
	if err != nil {
		appErrors.LogError(h.logger, err, "Failed to commit bills",
			zap.String("user_id", user.UserID),
			zap.Int("bills", len(req.Bills)))
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, summary)
}

// Watch handles GET /api/v1/sync/:sync_id/events. It follows a run started
// on any instance through the relay.
func (h *SyncHandler) Watch(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}
	if h.relay == nil {
		return respondError(c, appErrors.NewAppError(appErrors.ErrNotImplemented, "progress relay is disabled", nil))
	}

	syncID := c.Param("sync_id")
	w, err := streaming.NewSSEWriter(c.Response())
	if err != nil {
		return respondError(c, err)
	}

	if err := h.relay.Follow(c.Request().Context(), user.UserID, syncID, w); err != nil && c.Request().Context().Err() == nil {
		h.logger.Warn("Stopped following sync run",
			zap.String("sync_id", syncID),
			zap.Error(err))
	}
	return nil
}

func respondError(c echo.Context, err error) error {
	httpErr := appErrors.ToHTTPError(err)
	return c.JSON(httpErr.Code, echo.Map{
		"error": httpErr.Message,
		"code":  appErrors.CodeOf(err),
	})
}
