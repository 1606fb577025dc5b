package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/legphel-eats/fnb-dashboard/internal/aggregate"
	"github.com/legphel-eats/fnb-dashboard/internal/billing"
	"github.com/legphel-eats/fnb-dashboard/internal/enum"
)

// Publication is one published menu-item aggregate.
type Publication struct {
	Phase       string               `json:"phase"`
	Items       []aggregate.MenuItem `json:"items"`
	Totals      aggregate.Totals     `json:"totals"`
	PublishedAt time.Time            `json:"published_at"`

	generation uint64
}

// menuRun carries one LoadMenuItems accumulator across its two phases.
type menuRun struct {
	acc *aggregate.Accumulator
	gen uint64
}

// LoadMenuItems aggregates menu items in two phases. Bills dated within the
// recent window are loaded and published as a partial aggregate before it
// returns; the remaining bills are loaded in the background and the complete
// aggregate is published when they finish. The returned channel is closed
// once the background phase ends, whether or not it published.
//
// The background phase is bound to the Dashboard's lifetime, not to ctx.
func (d *Dashboard) LoadMenuItems(ctx context.Context) (<-chan struct{}, error) {
	bills := d.Bills()
	recent, _ := aggregate.RecentWindow(bills, d.today(), d.window)
	if err := d.loader.Load(ctx, recent); err != nil {
		return nil, err
	}

	run := &menuRun{}
	d.republish(d.fold(run, enum.PhasePartial))

	done := make(chan struct{})
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(done)
		if err := d.loader.Load(d.ctx, bills); err != nil {
			slog.Warn("Menu item backfill stopped", "error", err)
			return
		}
		d.republish(d.fold(run, enum.PhaseComplete))
	}()
	return done, nil
}

// MenuItems returns the latest published aggregate.
func (d *Dashboard) MenuItems() (Publication, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.menu == nil {
		return Publication{}, false
	}
	return *d.menu, true
}

// Charts loads details for every bill and returns the chart series.
func (d *Dashboard) Charts(ctx context.Context) (aggregate.Charts, error) {
	bills := d.Bills()
	if err := d.loader.Load(ctx, bills); err != nil {
		return aggregate.Charts{}, err
	}
	items := aggregate.MenuItems(bills, d.cache)
	return aggregate.BuildCharts(bills, items), nil
}

// fold adds the phase's bills to run's accumulator and records the result as
// the published aggregate. When the dashboard changed since the run last
// folded, the accumulator is discarded and rebuilt from the cache, since the
// totals it holds may be stale. Returns nil when nothing should be
// published.
func (d *Dashboard) fold(run *menuRun, phase string) *Publication {
	d.mu.Lock()
	defer d.mu.Unlock()

	if run.acc == nil || run.gen != d.generation {
		run.acc = aggregate.NewAccumulator()
		run.acc.RankBy(d.bills)
		run.gen = d.generation
	}
	run.acc.Add(d.scopeLocked(phase), d.cache)

	// A late partial must not replace a complete aggregate of the same state.
	if phase == enum.PhasePartial && d.menu != nil &&
		d.menu.Phase == enum.PhaseComplete && d.menu.generation == d.generation {
		return nil
	}
	return d.publishLocked(phase, run.acc.Snapshot())
}

// changedLocked records a change to bills or cached details. A previously
// published aggregate is rebuilt from the cache and returned for
// republishing.
func (d *Dashboard) changedLocked() *Publication {
	d.generation++
	if d.menu == nil {
		return nil
	}
	phase := d.menu.Phase
	return d.publishLocked(phase, aggregate.MenuItems(d.scopeLocked(phase), d.cache))
}

func (d *Dashboard) publishLocked(phase string, items []aggregate.MenuItem) *Publication {
	d.menu = &Publication{
		Phase:       phase,
		Items:       items,
		Totals:      aggregate.SumItems(items),
		PublishedAt: d.now(),
		generation:  d.generation,
	}
	pub := *d.menu
	return &pub
}

// scopeLocked returns the bills a phase aggregates over.
func (d *Dashboard) scopeLocked(phase string) []billing.Bill {
	if phase == enum.PhasePartial {
		recent, _ := aggregate.RecentWindow(d.bills, d.today(), d.window)
		return recent
	}
	return d.bills
}

func (d *Dashboard) republish(pub *Publication) {
	if pub == nil {
		return
	}
	d.metrics.Published(pub.Phase)
	d.publisher.Publish(enum.EventMenuItems, *pub)
}
