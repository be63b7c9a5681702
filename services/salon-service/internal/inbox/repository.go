// Package inbox remembers which events a consumer group has already handled.
package inbox

import (
	"context"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/db"
)

// Repository scopes event ids to one consumer group, so two groups reading
// the same topic each process every event once.
type Repository struct {
	pool     *db.Pool
	consumer string
}

func NewRepository(pool *db.Pool, consumer string) *Repository {
	return &Repository{pool: pool, consumer: consumer}
}

// Record claims eventID and reports false when it was already claimed.
func (r *Repository) Record(ctx context.Context, eventID, eventType string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO inbox_events (consumer, event_id, event_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (consumer, event_id) DO NOTHING
	`, r.consumer, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("inbox record %s: %w", eventID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Forget releases a claim so a failed event is handled again on redelivery.
func (r *Repository) Forget(ctx context.Context, eventID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM inbox_events WHERE consumer = $1 AND event_id = $2`, r.consumer, eventID)
	return err
}

// Prune drops claims received before cutoff and returns how many went.
func (r *Repository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inbox_events WHERE consumer = $1 AND received_at < $2`, r.consumer, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
