// Package events carries change notifications for requisitions and LPOs to
// listeners outside the request that caused them. Notifications are hints:
// clients re-fetch the affected records instead of trusting the payload.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event names
const (
	RequisitionCreated  = "requisition.created"
	RequisitionApproved = "requisition.approved"
	RequisitionRejected = "requisition.rejected"
	RequisitionRecalled = "requisition.recalled"
	LPOCreated          = "lpo.created"
	LPOStatusChanged    = "lpo.status_changed"
)

// Entity names
const (
	EntityRequisition = "requisition"
	EntityLPO         = "lpo"
)

// Event is the JSON body sent to websocket clients and NATS subscribers
type Event struct {
	ID         string    `json:"id"`
	Name       string    `json:"event"`
	Entity     string    `json:"entity"`
	EntityID   uint      `json:"entity_id"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	// OwnerID is the user who raised the requisition behind the entity.
	// Push channels use it to decide who may see the event.
	OwnerID uint `json:"-"`
}

// New stamps a fresh event about an entity owned by ownerID.
func New(name, entity string, entityID, ownerID uint, status string) Event {
	return Event{
		ID:         uuid.NewString(),
		Name:       name,
		Entity:     entity,
		EntityID:   entityID,
		OwnerID:    ownerID,
		Status:     status,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events. A failed publish never undoes the change
// that produced the event.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }

// Discard drops every event.
var Discard Publisher = discard{}

type multi []Publisher

// Multi fans an event out to every publisher and joins their errors.
func Multi(publishers ...Publisher) Publisher {
	return multi(publishers)
}

func (m multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Emit publishes ev and logs a failure instead of returning it.
func Emit(ctx context.Context, p Publisher, logger *slog.Logger, ev Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		logger.Warn("publish event failed",
			"event", ev.Name,
			"entity_id", ev.EntityID,
			"error", err,
		)
	}
}
