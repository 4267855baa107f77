// Package coordinator drives the sync pipeline: it plans fetch windows,
// pulls hourly aggregated data from the remote service, reconciles it
// against the statistics store, and exposes live per-channel totals.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lenedabridge/lenedabridge/pkg/leneda"
	"github.com/lenedabridge/lenedabridge/pkg/log"
	"github.com/lenedabridge/lenedabridge/pkg/metrics"
	"github.com/lenedabridge/lenedabridge/pkg/storage"
	"github.com/lenedabridge/lenedabridge/pkg/types"
)

// ErrReauthRequired is returned by Refresh when the remote service rejected
// the credentials. Scheduled ticks are suspended until Reauthenticated is
// called with working credentials.
var ErrReauthRequired = errors.New("coordinator: reauthentication required")

// PointData holds the per-channel live totals for one metering point,
// keyed by OBIS code. A nil value means the channel returned no data.
type PointData struct {
	Values map[string]*float64 `json:"values"`
}

// Coordinator orchestrates sync ticks over the configured metering points.
// Ticks are driven externally (scheduler or manual refresh) and are expected
// to be serialized; Refresh itself holds a lock so a stray overlapping call
// is wasteful but safe.
type Coordinator struct {
	client leneda.Client
	store  storage.Store
	points []types.MeteringPoint
	now    func() time.Time

	refreshMu sync.Mutex

	mu          sync.RWMutex
	data        map[string]PointData
	needsReauth bool
}

// New returns a Coordinator over the given metering point snapshot. The
// snapshot is read-only; reconfiguration means constructing a new
// Coordinator.
func New(client leneda.Client, store storage.Store, points []types.MeteringPoint) *Coordinator {
	return &Coordinator{
		client: client,
		store:  store,
		points: points,
		now:    time.Now,
		data:   map[string]PointData{},
	}
}

// pendingAppend is a reconciled batch buffered during a tick. Nothing is
// written to the store until every channel has been processed, so an
// authentication failure anywhere aborts the tick with zero appends.
type pendingAppend struct {
	seriesID string
	meta     types.StatisticMetadata
	entries  []types.StatisticEntry
}

// Refresh runs one full sync tick: for every configured metering point and
// channel it plans the fetch window, fetches hourly aggregated data,
// reconciles against stored state, and appends new entries; it then
// replaces the live-totals map in one step.
//
// An authentication rejection aborts the tick before anything is appended
// and latches the reauth-required state. All other per-channel failures are
// logged and contained.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	start := time.Now()
	err := c.refresh(ctx)
	metrics.TickDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, ErrReauthRequired):
		metrics.SyncTicks.WithLabelValues("reauth_required").Inc()
	case err != nil:
		metrics.SyncTicks.WithLabelValues("error").Inc()
	default:
		metrics.SyncTicks.WithLabelValues("ok").Inc()
	}
	return err
}

func (c *Coordinator) refresh(ctx context.Context) error {
	now := c.now().UTC()
	data := make(map[string]PointData, len(c.points))
	var pending []pendingAppend

	for _, mp := range c.points {
		values := make(map[string]*float64, len(mp.Channels))
		for _, name := range mp.Channels {
			ch, ok := types.LookupChannel(name)
			if !ok {
				metrics.ChannelErrors.WithLabelValues("unknown_channel").Inc()
				log.Ctx(ctx).WarnContext(
					ctx,
					"unknown channel in configuration",
					slog.String("meteringPoint", mp.ID),
					slog.String("channel", name),
				)
				continue
			}

			batch, err := c.syncChannel(ctx, mp.ID, ch)
			if err != nil {
				if errors.Is(err, leneda.ErrUnauthorized) {
					c.setNeedsReauth(true)
					log.Ctx(ctx).ErrorContext(
						ctx,
						"credentials rejected, aborting tick",
						slog.String("meteringPoint", mp.ID),
						slog.String("obisCode", ch.ObisCode),
					)
					return ErrReauthRequired
				}
				c.logChannelError(ctx, mp.ID, ch.ObisCode, err)
				values[ch.ObisCode] = nil
				continue
			}
			if batch != nil {
				pending = append(pending, *batch)
			}

			total, err := c.liveTotal(ctx, mp.ID, ch, now)
			if err != nil {
				if errors.Is(err, leneda.ErrUnauthorized) {
					c.setNeedsReauth(true)
					return ErrReauthRequired
				}
				c.logChannelError(ctx, mp.ID, ch.ObisCode, err)
				values[ch.ObisCode] = nil
				continue
			}
			values[ch.ObisCode] = total
		}
		data[mp.ID] = PointData{Values: values}
	}

	for _, p := range pending {
		if err := c.store.AppendEntries(ctx, p.seriesID, p.meta, p.entries); err != nil {
			metrics.ChannelErrors.WithLabelValues("store").Inc()
			log.Ctx(ctx).ErrorContext(
				ctx,
				"failed to append statistics entries",
				slog.String("seriesID", p.seriesID),
				slog.Any("error", err),
			)
			continue
		}
		metrics.AppendedEntries.Add(float64(len(p.entries)))
	}

	c.mu.Lock()
	c.data = data
	c.mu.Unlock()
	return nil
}

// syncChannel plans, fetches, and reconciles one metering point/channel
// pair. It returns the batch to append, or nil when there is nothing new.
func (c *Coordinator) syncChannel(ctx context.Context, meteringPoint string, ch types.Channel) (*pendingAppend, error) {
	seriesID := StatisticID(meteringPoint, ch.ObisCode)

	last, err := c.store.GetLastEntry(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to read last entry: %w", err)
	}

	var lastEnd, lastStart *time.Time
	var lastSum float64
	if last != nil {
		lastEnd = &last.End
		lastStart = &last.Start
		lastSum = last.Sum
	}

	w, ok := planWindow(lastEnd, c.now())
	if !ok {
		log.Ctx(ctx).DebugContext(
			ctx,
			"window up to date, skipping",
			slog.String("seriesID", seriesID),
		)
		return nil, nil
	}

	series, err := c.client.GetAggregatedData(ctx, meteringPoint, ch.ObisCode, w.Start, w.End, types.AggregationHour)
	if err != nil {
		return nil, err
	}
	if len(series.Points) == 0 {
		return nil, nil
	}

	entries := reconcile(series.Points, lastStart, lastSum)
	if len(entries) == 0 {
		return nil, nil
	}

	return &pendingAppend{
		seriesID: seriesID,
		meta: types.StatisticMetadata{
			Name:   meteringPoint + " " + ch.ObisCode,
			Unit:   ch.AggregatedUnit(),
			Source: sourceNamespace,
		},
		entries: entries,
	}, nil
}

// liveTotal fetches the year-to-date accumulated total for one channel. It
// returns nil when the remote service has no points for the year.
func (c *Coordinator) liveTotal(ctx context.Context, meteringPoint string, ch types.Channel, now time.Time) (*float64, error) {
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	series, err := c.client.GetAggregatedData(ctx, meteringPoint, ch.ObisCode, yearStart, now, types.AggregationInfinite)
	if err != nil {
		return nil, err
	}
	if len(series.Points) == 0 {
		return nil, nil
	}
	var total float64
	for _, p := range series.Points {
		total += p.Value
	}
	return &total, nil
}

func (c *Coordinator) logChannelError(ctx context.Context, meteringPoint, obisCode string, err error) {
	kind := "fetch"
	switch {
	case errors.Is(err, leneda.ErrForbidden):
		kind = "forbidden"
	case errors.Is(err, leneda.ErrMeteringPointNotFound):
		kind = "not_found"
	}
	metrics.ChannelErrors.WithLabelValues(kind).Inc()
	log.Ctx(ctx).WarnContext(
		ctx,
		"channel sync failed",
		slog.String("meteringPoint", meteringPoint),
		slog.String("obisCode", obisCode),
		slog.Any("error", err),
	)
}

// Data returns the current result map. The map is replaced wholesale each
// tick and never mutated after publication, so callers may read it without
// copying.
func (c *Coordinator) Data() map[string]PointData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data
}

// MeteringPoints returns the configured metering point snapshot.
func (c *Coordinator) MeteringPoints() []types.MeteringPoint {
	return c.points
}

// NeedsReauth reports whether a tick was aborted on rejected credentials
// and no reauthentication has happened since.
func (c *Coordinator) NeedsReauth() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.needsReauth
}

func (c *Coordinator) setNeedsReauth(v bool) {
	c.mu.Lock()
	c.needsReauth = v
	c.mu.Unlock()
}

// Reauthenticated installs a new API token and clears the reauth latch so
// scheduled ticks resume.
func (c *Coordinator) Reauthenticated(apiKey string) {
	c.client.UpdateAPIKey(apiKey)
	c.setNeedsReauth(false)
}
