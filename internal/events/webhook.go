package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// WebhookConfig describes a webhook destination for run lifecycle
// notifications.
type WebhookConfig struct {
	URL        string
	Events     []EventType // empty = run failures, spawn failures, check completion
	Timeout    time.Duration
	MaxRetries int
}

// retryDelay is the base backoff between delivery attempts. Tests
// shorten it.
var retryDelay = time.Second

// tripAfter is how many exhausted deliveries in a row disable a
// destination.
const tripAfter = 5

// WebhookManager subscribes to events and delivers HTTP POST
// notifications. Deliveries run asynchronously so the bus never blocks
// on the network; Stop drains them, which matters for a process that
// exits right after publishing its final event.
type WebhookManager struct {
	cfg    WebhookConfig
	bus    *Bus
	logger *slog.Logger
	client *http.Client
	subIDs []uint64
	wg     sync.WaitGroup

	mu       sync.Mutex
	failures int
	tripped  bool
}

// NewWebhookManager creates a webhook manager and subscribes it to the
// configured event types.
func NewWebhookManager(bus *Bus, cfg WebhookConfig, logger *slog.Logger) *WebhookManager {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if len(cfg.Events) == 0 {
		cfg.Events = []EventType{RunFailed, SpawnFailed, CheckFinished}
	}

	wm := &WebhookManager{
		cfg:    cfg,
		bus:    bus,
		logger: logger,
		client: &http.Client{Timeout: cfg.Timeout},
	}

	for _, et := range cfg.Events {
		id := bus.Subscribe(et, func(e Event) {
			wm.wg.Add(1)
			go wm.deliver(e)
		})
		wm.subIDs = append(wm.subIDs, id)
	}
	return wm
}

// Stop unsubscribes from the bus and waits for in-flight deliveries.
func (wm *WebhookManager) Stop() {
	for _, id := range wm.subIDs {
		wm.bus.Unsubscribe(id)
	}
	wm.wg.Wait()
}

func (wm *WebhookManager) deliver(e Event) {
	defer wm.wg.Done()

	wm.mu.Lock()
	if wm.tripped {
		wm.mu.Unlock()
		return
	}
	wm.mu.Unlock()

	payload := buildPayload(e)

	var lastErr error
	for attempt := range wm.cfg.MaxRetries {
		if attempt > 0 {
			time.Sleep(time.Duration(1<<uint(attempt-1)) * retryDelay)
		}

		if err := wm.send(payload); err != nil {
			lastErr = err
			continue
		}

		wm.mu.Lock()
		wm.failures = 0
		wm.mu.Unlock()
		return
	}

	wm.mu.Lock()
	wm.failures++
	if wm.failures >= tripAfter {
		wm.tripped = true
		wm.logger.Warn("webhook disabled after repeated failures", "url", wm.cfg.URL)
	}
	wm.mu.Unlock()

	wm.logger.Error("webhook delivery failed",
		"url", wm.cfg.URL,
		"event", string(e.Type),
		"error", lastErr,
	)
}

func (wm *WebhookManager) send(payload []byte) error {
	req, err := http.NewRequest("POST", wm.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "sprog-webhook/1.0")

	resp, err := wm.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

func buildPayload(e Event) []byte {
	payload := map[string]any{
		"event":     string(e.Type),
		"timestamp": e.Timestamp.Format(time.RFC3339),
		"details":   e.Data,
	}
	data, _ := json.Marshal(payload)
	return data
}
