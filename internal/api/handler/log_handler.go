package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/peopledesk/directory-system/internal/api/metrics"
)

// LogHandler is the telemetry sink: it accepts batched frontend events,
// annotates them with the authenticated caller, and writes them to the
// structured log. Best-effort by contract: a failure here must never
// affect the client.
type LogHandler struct {
	logger zerolog.Logger
}

func NewLogHandler(logger zerolog.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

type frontendLogEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Details   map[string]any    `json:"details"`
	UserInfo  map[string]string `json:"user_info"`
	Page      string            `json:"page"`
}

type frontendLogBatch struct {
	Logs []frontendLogEntry `json:"logs"`
}

type logsAcceptedResponse struct {
	Status string `json:"status"`
	Logged int    `json:"logged"`
}

// Receive ingests one batch of frontend telemetry events.
//
// @Summary      Submit frontend telemetry
// @Tags         logs
// @Accept       json
// @Produce      json
// @Param        body  body      frontendLogBatch  true  "Batched events"
// @Success      200   {object}  logsAcceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /logs [post]
func (h *LogHandler) Receive(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var batch frontendLogBatch
	if err := c.Bind(&batch); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}

	for _, entry := range batch.Logs {
		h.logger.Info().
			Str("user_id", actor.UserID).
			Str("username", actor.Username).
			Str("user_role", actor.Role).
			Str("event_type", entry.EventType).
			Str("page", entry.Page).
			Time("client_time", entry.Timestamp).
			Interface("details", entry.Details).
			Interface("user_info", entry.UserInfo).
			Str("ip", c.RealIP()).
			Msg("frontend event")
		metrics.TelemetryEventsTotal.WithLabelValues(entry.EventType).Inc()
	}

	return c.JSON(http.StatusOK, logsAcceptedResponse{Status: "success", Logged: len(batch.Logs)})
}
