package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// TxRunner opens the transaction a batch is claimed and marked in.
type TxRunner interface {
	InTx(ctx context.Context, fn func(pgx.Tx) error) error
}

// Publisher relays outbox rows to Kafka. The topic of each message is the
// event type and the key is the aggregate id, so events of one aggregate
// stay ordered within a partition.
type Publisher struct {
	db        TxRunner
	repo      *Repository
	logger    *slog.Logger
	brokers   []string
	pollEvery time.Duration
	batchSize int
	retention time.Duration
	now       func() time.Time
}

type PublisherConfig struct {
	Brokers   string
	PollEvery time.Duration
	BatchSize int
	// Retention keeps published rows this long before purging. Zero keeps them forever.
	Retention time.Duration
}

func NewPublisher(db TxRunner, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{
		db:        db,
		repo:      repo,
		logger:    logger,
		brokers:   kafkax.SplitBrokers(cfg.Brokers),
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
		retention: cfg.Retention,
		now:       time.Now,
	}
}

const purgeEvery = time.Hour

// Run polls until ctx is done. Without brokers it returns immediately and
// events accumulate in the table until a publisher with brokers starts.
func (p *Publisher) Run(ctx context.Context) {
	if len(p.brokers) == 0 {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}
	p.loop(ctx, &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	})
}

func (p *Publisher) loop(ctx context.Context, writer MessageWriter) {
	defer writer.Close()

	poll := time.NewTicker(p.pollEvery)
	defer poll.Stop()
	var lastPurge time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
		}

		// Drain the backlog before sleeping again.
		for {
			n, err := p.publishBatch(ctx, writer)
			if err != nil {
				p.logger.Error("outbox publish failed", "err", err)
				break
			}
			if n > 0 {
				p.logger.Debug("outbox batch published", "count", n)
			}
			if n < p.batchSize || ctx.Err() != nil {
				break
			}
		}

		if now := p.now(); p.retention > 0 && now.Sub(lastPurge) >= purgeEvery {
			lastPurge = now
			p.purge(ctx, now.Add(-p.retention))
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context, writer MessageWriter) (int, error) {
	published := 0
	err := p.db.InTx(ctx, func(tx pgx.Tx) error {
		records, err := p.repo.Claim(ctx, tx, p.batchSize)
		if err != nil || len(records) == 0 {
			return err
		}

		msgs := make([]kafka.Message, len(records))
		ids := make([]int64, len(records))
		for i, r := range records {
			msgs[i] = toMessage(ctx, r)
			ids[i] = r.ID
		}
		if err := writer.WriteMessages(ctx, msgs...); err != nil {
			return err
		}
		published = len(records)
		return p.repo.MarkPublished(ctx, tx, ids)
	})
	return published, err
}

func (p *Publisher) purge(ctx context.Context, cutoff time.Time) {
	var removed int64
	err := p.db.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		removed, err = p.repo.Purge(ctx, tx, cutoff)
		return err
	})
	if err != nil {
		p.logger.Error("outbox purge failed", "err", err)
		return
	}
	if removed > 0 {
		p.logger.Info("outbox purged", "rows", removed, "cutoff", cutoff)
	}
}

// toMessage resumes the trace stored with the row so the consumer span
// links back to the request that wrote the event.
func toMessage(ctx context.Context, r Record) kafka.Message {
	msg := kafka.Message{
		Topic: r.Event.EventType,
		Key:   []byte(r.Event.AggregateID),
		Value: r.Event.Payload,
		Headers: kafkax.EventMeta{
			EventID:       r.EventID,
			EventType:     r.Event.EventType,
			AggregateType: r.Event.AggregateType,
		}.Headers(),
	}
	msg.Headers = kafkax.InjectTraceHeaders(r.Trace.Resume(ctx), msg.Headers)
	return msg
}
