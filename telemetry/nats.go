package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATSObserver mirrors run telemetry onto NATS subjects so external
// consumers (dashboards, recorders) can follow a run without holding a
// reference to it. Publish failures are logged and swallowed; telemetry
// mirroring must never fail the run.
type NATSObserver struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// phaseMessage is the wire form of a phase progress notification.
type phaseMessage struct {
	Label   string `json:"label,omitempty"`
	Current int    `json:"current,omitempty"`
	Total   int    `json:"total,omitempty"`
}

// NewNATSObserver creates an observer publishing under
// "research.run.<runID>.". A nil connection yields an observer whose
// callbacks are no-ops (graceful degradation).
func NewNATSObserver(conn *nats.Conn, runID string, logger *slog.Logger) *NATSObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSObserver{
		conn:   conn,
		prefix: "research.run." + runID,
		logger: logger,
	}
}

// OnLogEntry publishes the entry as JSON to <prefix>.log.
func (o *NATSObserver) OnLogEntry(entry Entry) {
	o.publish(o.prefix+".log", entry)
}

// OnProgress publishes the truncated progress text to <prefix>.progress.
func (o *NATSObserver) OnProgress(text string) {
	if o.conn == nil {
		return
	}
	if err := o.conn.Publish(o.prefix+".progress", []byte(text)); err != nil {
		o.logger.Warn("Failed to publish progress", "subject", o.prefix+".progress", "error", err)
	}
}

// OnPhaseLabel publishes the phase label to <prefix>.phase.
func (o *NATSObserver) OnPhaseLabel(label string) {
	o.publish(o.prefix+".phase", phaseMessage{Label: label})
}

// OnPhaseProgress publishes the phase index to <prefix>.phase.
func (o *NATSObserver) OnPhaseProgress(current, total int) {
	o.publish(o.prefix+".phase", phaseMessage{Current: current, Total: total})
}

func (o *NATSObserver) publish(subject string, payload any) {
	if o.conn == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		o.logger.Warn("Failed to marshal telemetry payload", "subject", subject, "error", err)
		return
	}

	if err := o.conn.Publish(subject, data); err != nil {
		o.logger.Warn("Failed to publish telemetry", "subject", subject, "error", err)
	}
}

// Subject returns the fully qualified subject for a suffix, for consumers
// that want to subscribe to a single run's stream.
func (o *NATSObserver) Subject(suffix string) string {
	return fmt.Sprintf("%s.%s", o.prefix, suffix)
}
