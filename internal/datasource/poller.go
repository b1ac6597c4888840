package datasource

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dexlens/dexlens/pkg/models"
)

// Snapshot is one complete refresh: the full replacement record set plus
// metadata. The consumer receives it atomically; there are no partial or
// merged updates.
type Snapshot struct {
	Records     []models.TokenRecord
	FetchedAt   time.Time
	RefPriceUSD float64 // 0 when the reference price is disabled or failed
}

// Poller drives the periodic fetch loop. Retry and backoff policy lives
// here, not in the consumer: the table engine only ever sees complete
// snapshots or a load-error notice.
type Poller struct {
	feed     *RankFeed
	enricher *HolderEnricher // optional
	ref      *RefPrice       // optional

	interval   time.Duration
	maxRetries int

	onSnapshot func(Snapshot)
	onError    func(error)

	log *slog.Logger
}

// PollerOptions configures a Poller.
type PollerOptions struct {
	Feed       *RankFeed
	Enricher   *HolderEnricher
	RefPrice   *RefPrice
	Interval   time.Duration
	MaxRetries int
	OnSnapshot func(Snapshot)
	OnError    func(error)
	Logger     *slog.Logger
}

// NewPoller creates a poller. Feed and OnSnapshot are mandatory.
func NewPoller(opts PollerOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.OnError == nil {
		opts.OnError = func(error) {}
	}
	return &Poller{
		feed:       opts.Feed,
		enricher:   opts.Enricher,
		ref:        opts.RefPrice,
		interval:   opts.Interval,
		maxRetries: opts.MaxRetries,
		onSnapshot: opts.OnSnapshot,
		onError:    opts.OnError,
		log:        opts.Logger,
	}
}

// Run fetches immediately, then on every interval tick until the context
// is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

// refresh runs one fetch with bounded retries and delivers the result.
func (p *Poller) refresh(ctx context.Context) {
	var snap Snapshot
	var err error

	backoff := time.Second
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		snap, err = p.fetchOnce(ctx)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return
		}
		p.log.Warn("snapshot fetch failed", "attempt", attempt, "err", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if err != nil {
		p.log.Error("snapshot fetch gave up", "retries", p.maxRetries, "err", err)
		p.onError(err)
		return
	}

	p.log.Info("snapshot delivered", "tokens", len(snap.Records), "ref_price", snap.RefPriceUSD)
	p.onSnapshot(snap)
}

// fetchOnce assembles one complete snapshot: the rank feed and the
// reference price in parallel, then optional holder enrichment. A failed
// reference price degrades to 0 rather than discarding the snapshot.
func (p *Poller) fetchOnce(ctx context.Context) (Snapshot, error) {
	var records []models.TokenRecord
	var refPrice float64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = p.feed.Fetch(gctx)
		return err
	})
	if p.ref != nil {
		g.Go(func() error {
			v, err := p.ref.SOLUSD(gctx)
			if err != nil {
				p.log.Warn("reference price unavailable", "err", err)
				return nil
			}
			refPrice = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	if p.enricher != nil {
		if err := p.enricher.Enrich(ctx, records); err != nil {
			return Snapshot{}, err
		}
	}

	return Snapshot{
		Records:     records,
		FetchedAt:   time.Now().UTC(),
		RefPriceUSD: refPrice,
	}, nil
}
