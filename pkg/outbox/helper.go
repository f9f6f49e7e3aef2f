package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	mqcontracts "habit-tracker/contracts/mq"
)

// AppendInTx 把领域事件和业务写入放在同一事务里，由 Dispatcher 异步投递
func AppendInTx(ctx context.Context, tx pgx.Tx, repo *Repository, ev mqcontracts.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.RoutingKey(), err)
	}

	aggregateID := ev.AggregateID()
	return repo.InsertEvent(ctx, tx, &Event{
		AggregateType: ev.AggregateType(),
		AggregateID:   &aggregateID,
		RoutingKey:    ev.RoutingKey(),
		Payload:       payload,
		Status:        StatusPending,
	})
}
