package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event and aggregate type identifiers stored in outbox_events rows and
// forwarded as Pub/Sub message attributes.
const (
	EventOrderPlaced          = "order.placed"
	EventOrderStatusChanged   = "order.status_changed"
	EventReimbursementSettled = "reimbursement.settled"

	AggregateOrder         = "order"
	AggregateReimbursement = "reimbursement"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID  uuid.UUID  `json:"userId"`
	GroupID *uuid.UUID `json:"groupId,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
