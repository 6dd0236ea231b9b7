package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// EventRepo persists domain events.
type EventRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewEventRepo creates a PostgreSQL-backed event repository.
func NewEventRepo(pool *pgxpool.Pool, logger zerolog.Logger) *EventRepo {
	return &EventRepo{pool: pool, logger: logger.With().Str("repository", "event").Logger()}
}

// Insert appends a domain event.
func (r *EventRepo) Insert(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (DomainEvent, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO domain_events (id, topic, aggregate_id, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, topic, aggregate_id, payload, occurred_at`,
		uuid.New(), topic, aggregateID, payload)
	var ev DomainEvent
	if err := row.Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt); err != nil {
		r.logger.Error().Err(err).Str("topic", topic).Msg("failed to insert domain event")
		return DomainEvent{}, fmt.Errorf("insert domain event: %w", err)
	}
	return ev, nil
}

// ListByTopic pages through events on a topic newest first.
func (r *EventRepo) ListByTopic(ctx context.Context, topic string, limit, offset int32) ([]DomainEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, topic, aggregate_id, payload, occurred_at
		FROM domain_events WHERE topic = $1
		ORDER BY occurred_at DESC LIMIT $2 OFFSET $3`, topic, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list domain events: %w", err)
	}
	defer rows.Close()

	var out []DomainEvent
	for rows.Next() {
		var ev DomainEvent
		if err := rows.Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan domain event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate domain events: %w", err)
	}
	return out, nil
}
