package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/geocoder89/adminhub/internal/domain/audit"
	"github.com/geocoder89/adminhub/internal/observability"
	"github.com/google/uuid"
)

type Store interface {
	Insert(ctx context.Context, event audit.Event) error
}

// Recorder appends audit events on a best-effort basis. A persistence fault
// is logged and counted but never surfaced: the action being audited must
// not fail because auditing did.
type Recorder struct {
	store Store
	log   *slog.Logger
	prom  *observability.Prom
}

func NewRecorder(store Store, log *slog.Logger, prom *observability.Prom) *Recorder {
	if log == nil {
		log = slog.Default()
	}

	return &Recorder{
		store: store,
		log:   log,
		prom:  prom,
	}
}

func (r *Recorder) Record(ctx context.Context, entry audit.Entry) {
	if !entry.Action.Valid() {
		r.log.ErrorContext(ctx, "audit_event_rejected", "action", string(entry.Action))
		return
	}

	event := audit.Event{
		ID:        uuid.NewString(),
		Action:    entry.Action,
		Actor:     entry.Actor,
		Target:    entry.Target,
		IPAddress: entry.Origin.IPAddress,
		UserAgent: entry.Origin.UserAgent,
		CreatedAt: time.Now().UTC(),
	}

	if entry.Details != nil {
		raw, err := json.Marshal(entry.Details)

		if err != nil {
			// keep the event, drop only the payload
			r.log.ErrorContext(ctx, "audit_details_unmarshalable", "action", string(entry.Action), "err", err)
		} else {
			event.Details = raw
		}
	}

	err := r.store.Insert(ctx, event)

	if err != nil {
		r.log.ErrorContext(ctx, "audit_write_failed",
			"action", string(entry.Action),
			"actor_email", entry.Actor.Email,
			"err", err,
		)

		if r.prom != nil {
			r.prom.AuditWriteDropped.Inc()
		}

		return
	}

	if r.prom != nil {
		r.prom.AuditEventsTotal.WithLabelValues(string(entry.Action)).Inc()
	}
}
