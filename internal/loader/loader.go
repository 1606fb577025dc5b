// Package loader fills the detail cache for a set of bills with bounded
// concurrency.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/legphel-eats/fnb-dashboard/internal/billing"
	"github.com/legphel-eats/fnb-dashboard/internal/metrics"
)

// DefaultConcurrency is the chunk size used when Options.Concurrency is unset.
const DefaultConcurrency = 5

// Policy decides what a failed detail fetch does to the batch.
type Policy int

const (
	// PolicyDegrade logs the failure and records the bill as fetched with no
	// details, so aggregation proceeds. The bill is not retried until its
	// cache entry is invalidated.
	PolicyDegrade Policy = iota
	// PolicyFailFast writes nothing for the failed bill, lets the current
	// chunk finish and returns the first failure without starting the next
	// chunk.
	PolicyFailFast
)

func (p Policy) String() string {
	switch p {
	case PolicyDegrade:
		return "degrade"
	case PolicyFailFast:
		return "fail-fast"
	default:
		return "unknown"
	}
}

// Fetcher fetches the details of one bill. Satisfied by *gateway.Client.
type Fetcher interface {
	GetBillDetails(ctx context.Context, billNo string) ([]billing.BillDetail, error)
}

// Store is the cache the loader fills. Satisfied by *cache.DetailCache.
type Store interface {
	Has(billNo string) bool
	Degraded(billNo string) bool
	// Fill writes only when billNo is absent or degraded.
	Fill(billNo string, details []billing.BillDetail) bool
	MarkDegraded(billNo string)
}

// Options configures a Loader.
type Options struct {
	Concurrency int
	Policy      Policy
	// Context bounds the upstream fetches. A fetch is shared by every Load
	// waiting on the same bill and keeps running when its callers give up,
	// so it is tied to this context rather than to any caller's.
	// Defaults to context.Background().
	Context context.Context
	Metrics *metrics.Metrics
}

// Loader fetches details for bills missing from the cache.
type Loader struct {
	fetcher Fetcher
	store   Store
	opts    Options
	flight  singleflight.Group
	fetches sync.WaitGroup
}

// New creates a Loader.
func New(fetcher Fetcher, store Store, opts Options) *Loader {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	return &Loader{fetcher: fetcher, store: store, opts: opts}
}

// Load fetches details for every bill not yet cached using the default policy.
func (l *Loader) Load(ctx context.Context, bills []billing.Bill) error {
	return l.LoadWithPolicy(ctx, bills, l.opts.Policy)
}

// LoadWithPolicy fetches details for every bill not yet cached, in chunks of
// Concurrency. Chunk N is fully awaited before chunk N+1 starts, so at most
// Concurrency requests are in flight per call. Results are observable only
// through the cache. Under PolicyDegrade the only error returned is the
// context's. PolicyFailFast also refetches bills a degraded load recorded
// as empty.
//
// Cancelling ctx stops further chunks. Fetches already started still
// complete and fill the cache.
func (l *Loader) LoadWithPolicy(ctx context.Context, bills []billing.Bill, policy Policy) error {
	pending := l.pending(bills, policy)
	size := l.opts.Concurrency

	for start := 0; start < len(pending); start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk := pending[start:min(start+size, len(pending))]

		// Not errgroup.WithContext: one failed bill must not cancel its siblings.
		var g errgroup.Group
		for _, billNo := range chunk {
			g.Go(func() error {
				return l.fetchOne(ctx, billNo, policy)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// Wait blocks until every started fetch has finished, including fetches
// whose callers stopped waiting.
func (l *Loader) Wait() {
	l.fetches.Wait()
}

// pending returns the distinct bill numbers of bills that need a fetch, in
// input order.
func (l *Loader) pending(bills []billing.Bill, policy Policy) []string {
	seen := make(map[string]bool, len(bills))
	out := make([]string, 0, len(bills))
	for _, b := range bills {
		if b.BillNo == "" || seen[b.BillNo] {
			continue
		}
		seen[b.BillNo] = true
		need := l.needsFetch(b.BillNo, policy)
		l.opts.Metrics.CacheLookup(!need)
		if need {
			out = append(out, b.BillNo)
		}
	}
	return out
}

func (l *Loader) needsFetch(billNo string, policy Policy) bool {
	if !l.store.Has(billNo) {
		return true
	}
	return policy == PolicyFailFast && l.store.Degraded(billNo)
}

// fetchOne waits for billNo's shared fetch and applies policy to its
// failure. A caller whose ctx ends stops waiting and leaves the fetch to
// finish on its own.
func (l *Loader) fetchOne(ctx context.Context, billNo string, policy Policy) error {
	l.fetches.Add(1)
	ch := l.flight.DoChan(billNo, func() (any, error) {
		return nil, l.fetch(billNo)
	})

	var err error
	select {
	case res := <-ch:
		l.fetches.Done()
		err = res.Err
	case <-ctx.Done():
		go func() {
			<-ch
			l.fetches.Done()
		}()
		return nil
	}
	if err == nil {
		return nil
	}

	if l.opts.Context.Err() != nil {
		// Shutting down, not failed: leave the bill unfetched.
		return nil
	}

	if policy == PolicyFailFast {
		return fmt.Errorf("load details for bill %s: %w", billNo, err)
	}

	slog.Warn("Failed to load bill details; recording as empty",
		"bill_no", billNo,
		"error", err,
	)
	l.opts.Metrics.DegradedFetch()
	l.store.MarkDegraded(billNo)
	return nil
}

// fetch performs the upstream call for billNo. The result never replaces an
// entry written while the request was in flight.
func (l *Loader) fetch(billNo string) error {
	if l.store.Has(billNo) && !l.store.Degraded(billNo) {
		return nil
	}
	details, err := l.fetcher.GetBillDetails(l.opts.Context, billNo)
	if err != nil {
		return err
	}
	l.store.Fill(billNo, details)
	return nil
}
