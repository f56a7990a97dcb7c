// workers/event_dispatcher.go
package workers

import (
	"context"
	"encoding/json"
	"log"

	"career-progress-system/models"
	"career-progress-system/services"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Evaluator is what the dispatcher drives; satisfied by the progress engine.
type Evaluator interface {
	Evaluate(ctx context.Context, userID string, eventType models.EventType, payload map[string]interface{}) (*services.EvaluationResult, error)
}

// GrantSink receives granted rewards for downstream notification.
type GrantSink interface {
	Publish(userID string, defs ...models.RewardDefinition)
}

// EventDispatcher consumes activity events off a buffered channel, logs
// them, runs the progress engine, and forwards grants to the sink. A full
// buffer drops the event rather than blocking the producer; the daily sweep
// repairs any drift since all formulas read fresh.
type EventDispatcher struct {
	db     *gorm.DB
	engine Evaluator
	sink   GrantSink
	events chan models.ActivityEvent
}

func NewEventDispatcher(db *gorm.DB, engine Evaluator, sink GrantSink, buffer int) *EventDispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	return &EventDispatcher{
		db:     db,
		engine: engine,
		sink:   sink,
		events: make(chan models.ActivityEvent, buffer),
	}
}

// Enqueue hands an event to the dispatcher without blocking the caller.
func (d *EventDispatcher) Enqueue(event models.ActivityEvent) {
	select {
	case d.events <- event:
	default:
		log.Printf("⚠️ Event buffer full, dropped %s for %s (sweep will catch up)", event.Type, event.UserID)
	}
}

func (d *EventDispatcher) Start(ctx context.Context) {
	log.Println("🔁 Starting Event Dispatcher (activity events → progress engine)…")
	go d.run(ctx)
}

func (d *EventDispatcher) run(ctx context.Context) {
	for {
		select {
		case event := <-d.events:
			d.handle(ctx, event)
		case <-ctx.Done():
			log.Println("⏹️ Event Dispatcher stopped")
			return
		}
	}
}

func (d *EventDispatcher) handle(ctx context.Context, event models.ActivityEvent) {
	d.logActivity(event)

	result, err := d.engine.Evaluate(ctx, event.UserID, event.Type, event.Payload)
	if err != nil {
		log.Printf("❌ Evaluate failed for %s/%s: %v", event.UserID, event.Type, err)
		return
	}
	for _, f := range result.Failed {
		log.Printf("⚠️ Definition %s skipped during %s for %s: %v", f.RewardID, event.Type, event.UserID, f.Err)
	}
	if len(result.Granted) > 0 && d.sink != nil {
		d.sink.Publish(event.UserID, result.Granted...)
	}
}

// logActivity appends the event to the audit log. Best-effort: a logging
// failure must not stop evaluation.
func (d *EventDispatcher) logActivity(event models.ActivityEvent) {
	var payload datatypes.JSON
	if event.Payload != nil {
		if raw, err := json.Marshal(event.Payload); err == nil {
			payload = datatypes.JSON(raw)
		}
	}
	entry := models.ActivityLog{
		ID:        uuid.NewString(),
		UserID:    event.UserID,
		EventType: event.Type,
		Payload:   payload,
	}
	if err := d.db.Create(&entry).Error; err != nil {
		log.Printf("⚠️ Failed to log activity %s for %s: %v", event.Type, event.UserID, err)
	}
}
