package alerts

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/locaops/rental-backend/pkg/enums"
	"github.com/locaops/rental-backend/pkg/outbox"
	"github.com/locaops/rental-backend/pkg/outbox/payloads"
)

const payloadVersion = 1

// Service translates operational anomalies into outbox alert events. Rows are
// written in the caller's transaction and shipped by the alert publisher.
type Service struct {
	outbox *outbox.Service
	source string
}

// NewService constructs the alert emitter. Source names the producing binary.
func NewService(outboxSvc *outbox.Service, source string) (*Service, error) {
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &Service{outbox: outboxSvc, source: source}, nil
}

// EmitCounterClamped queues an alert for a decrement cut short by the zero floor.
func (s *Service) EmitCounterClamped(ctx context.Context, tx *gorm.DB, event payloads.CounterClampedEvent) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventCounterClamped,
		AggregateType: enums.AggregateItem,
		AggregateID:   event.ItemID,
		Source:        s.source,
		Data:          event,
		Version:       payloadVersion,
	})
}

// EmitStockDrift queues a drift alert. Pending duplicates for the same item
// are skipped so repeated sweeps do not flood the topic.
func (s *Service) EmitStockDrift(ctx context.Context, tx *gorm.DB, event payloads.StockDriftDetectedEvent) error {
	return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventStockDriftDetected,
		AggregateType: enums.AggregateItem,
		AggregateID:   event.ItemID,
		Source:        s.source,
		Data:          event,
		Version:       payloadVersion,
	})
}

// EmitOverbooking queues an overbooking conflict alert, deduplicated while a
// previous alert for the item is still unpublished.
func (s *Service) EmitOverbooking(ctx context.Context, tx *gorm.DB, event payloads.OverbookingConflictEvent) error {
	return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOverbookingConflict,
		AggregateType: enums.AggregateItem,
		AggregateID:   event.ItemID,
		Source:        s.source,
		Data:          event,
		Version:       payloadVersion,
	})
}
