package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

const (
	telemetryBatchSize     = 16
	telemetryFlushInterval = 5 * time.Second
	telemetryBuffer        = 256
)

// Event is one telemetry record submitted to the backing store's log
// sink.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Details   map[string]any    `json:"details,omitempty"`
	UserInfo  map[string]string `json:"user_info"`
	Page      string            `json:"page"`
}

type telemetryBatch struct {
	Logs []Event `json:"logs"`
}

// Telemetry batches UI events and ships them to POST /logs. Strictly
// fire-and-forget: delivery failures are logged at debug level and
// never surface to the caller, and a full buffer drops events rather
// than blocking the UI loop.
type Telemetry struct {
	baseURL  string
	creds    *Store
	http     *http.Client
	events   chan Event
	userInfo map[string]string
	logger   zerolog.Logger
}

func NewTelemetry(baseURL string, creds *Store, logger zerolog.Logger) *Telemetry {
	return &Telemetry{
		baseURL: baseURL,
		creds:   creds,
		http:    &http.Client{Timeout: requestTimeout},
		events:  make(chan Event, telemetryBuffer),
		userInfo: map[string]string{
			"platform": runtime.GOOS,
			"terminal": os.Getenv("TERM"),
		},
		logger: logger,
	}
}

// Record queues one event. Never blocks.
func (t *Telemetry) Record(eventType, page string, details map[string]any) {
	event := Event{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Details:   details,
		UserInfo:  t.userInfo,
		Page:      page,
	}
	select {
	case t.events <- event:
	default:
		// Buffer full: telemetry loss is acceptable, UI stalls are not.
	}
}

// Start launches the background flusher. It drains the queue until ctx
// is cancelled, sending a batch whenever telemetryBatchSize events have
// accumulated or the flush interval elapses.
func (t *Telemetry) Start(ctx context.Context) {
	go t.run(ctx)
}

func (t *Telemetry) run(ctx context.Context) {
	ticker := time.NewTicker(telemetryFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, telemetryBatchSize)
	for {
		select {
		case <-ctx.Done():
			t.flush(batch)
			return
		case event := <-t.events:
			batch = append(batch, event)
			if len(batch) >= telemetryBatchSize {
				t.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				t.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (t *Telemetry) flush(batch []Event) {
	if len(batch) == 0 {
		return
	}

	token := t.creds.Token()
	if token == "" {
		// No credential, no sink. Drop silently.
		return
	}

	data, err := json.Marshal(telemetryBatch{Logs: batch})
	if err != nil {
		t.logger.Debug().Err(err).Msg("telemetry marshal failed")
		return
	}

	req, err := http.NewRequest(http.MethodPost, t.baseURL+"/logs", bytes.NewReader(data))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := t.http.Do(req)
	if err != nil {
		t.logger.Debug().Err(err).Msg("telemetry delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		t.logger.Debug().Int("status", resp.StatusCode).Msg("telemetry rejected")
	}
}
