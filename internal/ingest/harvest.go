package ingest

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/bryan-buckman/bookserver/internal/catalog"
	"github.com/bryan-buckman/bookserver/internal/database"
	"github.com/bryan-buckman/bookserver/internal/model"
)

// MinPollingIntervalMinutes is the shortest accepted polling interval.
const MinPollingIntervalMinutes = 15

const (
	// SQLite serializes writers, so harvesting it in parallel only queues
	// the workers on the write lock.
	sqliteWorkers   = 1
	postgresWorkers = 8

	hostWidth = 2
	hostGap   = 500 * time.Millisecond

	harvestTimeout = 10 * time.Minute
	maxErrorLen    = 200
)

// hostGate bounds the requests in flight to one host and spaces
// consecutive requests to it by gap.
type hostGate struct {
	width int
	gap   time.Duration

	mu    sync.Mutex
	slots map[string]chan struct{}
	last  map[string]time.Time
}

func newHostGate(width int, gap time.Duration) *hostGate {
	return &hostGate{
		width: width,
		gap:   gap,
		slots: make(map[string]chan struct{}),
		last:  make(map[string]time.Time),
	}
}

func (g *hostGate) enter(ctx context.Context, host string) error {
	g.mu.Lock()
	slot, ok := g.slots[host]
	if !ok {
		slot = make(chan struct{}, g.width)
		g.slots[host] = slot
	}
	g.mu.Unlock()

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	g.mu.Lock()
	wait := g.gap - time.Since(g.last[host])
	g.mu.Unlock()
	if wait <= 0 {
		return nil
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		<-slot
		return ctx.Err()
	}
}

func (g *hostGate) leave(host string) {
	g.mu.Lock()
	g.last[host] = time.Now()
	slot := g.slots[host]
	g.mu.Unlock()
	<-slot
}

// hostOf keys the gate. Unparseable or host-less URLs are keyed as-is.
func hostOf(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Host
	}
	return raw
}

// Store validates records and adds the new ones to the index, returning
// how many were new. Invalid records are logged and skipped.
func Store(db database.Store, sourceID *int64, records []catalog.Record, fetchedAt time.Time) int {
	added := 0
	for i, r := range records {
		item, err := model.ItemFromRecord(r)
		if err != nil {
			log.Printf("Skipping record %d: %v", i, err)
			continue
		}
		item.SourceID = sourceID
		item.FetchedAt = fetchedAt
		_, isNew, err := db.AddItem(item)
		if err != nil {
			log.Printf("Error indexing %s: %v", item.URN, err)
			continue
		}
		if isNew {
			added++
		}
	}
	return added
}

// Harvester pulls source feeds into the item index.
type Harvester struct {
	db      database.Store
	parser  *gofeed.Parser
	workers int
	gate    *hostGate
}

// NewHarvester sizes its worker pool to what the store can absorb.
func NewHarvester(db database.Store) *Harvester {
	workers := sqliteWorkers
	if db.SupportsHighConcurrency() {
		workers = postgresWorkers
	}
	return &Harvester{
		db:      db,
		parser:  gofeed.NewParser(),
		workers: workers,
		gate:    newHostGate(hostWidth, hostGap),
	}
}

// HarvestSource fetches one source and indexes its items. It returns the
// number of items that were new. A fetch failure is recorded on the source.
func (h *Harvester) HarvestSource(ctx context.Context, src model.Source) (int, error) {
	host := hostOf(src.URL)
	if err := h.gate.enter(ctx, host); err != nil {
		return 0, fmt.Errorf("wait for %s: %w", host, err)
	}
	defer h.gate.leave(host)

	feed, err := h.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		msg := err.Error()
		if len(msg) > maxErrorLen {
			msg = msg[:maxErrorLen]
		}
		if uerr := h.db.UpdateSourceError(src.ID, msg); uerr != nil {
			log.Printf("Error recording failure of source %d: %v", src.ID, uerr)
		}
		return 0, fmt.Errorf("harvest %s: %w", src.URL, err)
	}

	// Sources added by URL alone adopt the feed's title.
	if src.Title == src.URL && feed.Title != "" {
		if err := h.db.UpdateSourceTitle(src.ID, feed.Title); err != nil {
			log.Printf("Error renaming source %d: %v", src.ID, err)
		}
	}

	now := time.Now()
	id := src.ID
	added := Store(h.db, &id, FeedRecords(feed, src.URL), now)
	if err := h.db.UpdateSourceLastFetched(src.ID, now); err != nil {
		log.Printf("Error stamping source %d: %v", src.ID, err)
	}
	return added, nil
}

// HarvestAll harvests every source and returns the new-item count of each
// source that succeeded. Failed sources are logged and left out.
func (h *Harvester) HarvestAll(ctx context.Context) (map[int64]int, error) {
	sources, err := h.db.GetSources()
	if err != nil {
		return nil, err
	}
	log.Printf("Harvesting %d sources with %d workers", len(sources), h.workers)

	var mu sync.Mutex
	counts := make(map[int64]int, len(sources))

	group := errgroup.Group{}
	group.SetLimit(h.workers)
	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		src := src
		group.Go(func() error {
			added, err := h.HarvestSource(ctx, src)
			if err != nil {
				log.Printf("Harvest failed: %v", err)
				return nil
			}
			mu.Lock()
			counts[src.ID] = added
			mu.Unlock()
			return nil
		})
	}
	group.Wait()
	return counts, ctx.Err()
}

// Poller harvests on the interval stored in the settings table.
type Poller struct {
	harvester *Harvester
	db        database.Store

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller returns a stopped poller.
func NewPoller(db database.Store) *Poller {
	return &Poller{harvester: NewHarvester(db), db: db}
}

// Start harvests immediately and then once per interval until Stop.
func (p *Poller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx)
}

// Stop cancels any harvest in progress and waits for the loop to exit.
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.done)
	for {
		p.pass(ctx)

		mins, _ := p.db.GetPollingInterval()
		wait := time.Duration(max(mins, MinPollingIntervalMinutes)) * time.Minute
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (p *Poller) pass(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, harvestTimeout)
	defer cancel()

	counts, err := p.harvester.HarvestAll(ctx)
	if err != nil {
		log.Printf("Poller: %v", err)
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	log.Printf("Poller: %d new items from %d sources", total, len(counts))
}
