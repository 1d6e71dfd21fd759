package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wfseller/internal/database"
	"wfseller/internal/visibility"
	"wfseller/internal/webhook"

	"github.com/charmbracelet/log"
)

// VisibilitySetter is the marketplace call the sync needs.
type VisibilitySetter interface {
	SetOrderVisibility(ctx context.Context, orderID string, visible bool) error
}

type Notifier interface {
	Send(ctx context.Context, embeds ...webhook.Embed) error
}

type Change struct {
	Item    string
	OrderID string
	Visible bool
}

type Result struct {
	Checked int
	Changes []Change
	Failed  int
}

// Syncer flips order visibility to match the exhausted syndicates recorded in
// the listings database.
type Syncer struct {
	dbPath   string
	market   VisibilitySetter
	notifier Notifier
}

func NewSyncer(dbPath string, market VisibilitySetter, notifier Notifier) *Syncer {
	return &Syncer{dbPath: dbPath, market: market, notifier: notifier}
}

// SyncOnce reloads the database, so hand edits to the exhausted set are picked
// up, and updates every order whose visibility is out of date. A failed
// update does not stop the pass. All failures are returned together.
func (s *Syncer) SyncOnce(ctx context.Context) (Result, error) {
	var res Result

	db, err := database.Load(s.dbPath)
	if err != nil {
		return res, err
	}

	var errs []error
	for _, name := range db.Names() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		l := db.Listings[name]
		if !l.HasOrder() {
			continue
		}
		res.Checked++

		want := visibility.ShouldBeVisible(l.Syndicates, db.Exhausted)
		current := l.Visible == nil || *l.Visible
		if want == current && l.Visible != nil {
			continue
		}

		if err := s.market.SetOrderVisibility(ctx, l.OrderID, want); err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			log.Error("Could not update order visibility", "Item", name, "Order", l.OrderID, "Error", err)
			continue
		}

		db.MarkVisibility(name, want)
		res.Changes = append(res.Changes, Change{Item: name, OrderID: l.OrderID, Visible: want})
		log.Info("👁️ Order visibility updated", "Item", name, "Visible", want)
	}

	if len(res.Changes) > 0 {
		if err := db.Save(); err != nil {
			errs = append(errs, err)
		}
		s.notify(ctx, res.Changes)
	}

	return res, errors.Join(errs...)
}

func (s *Syncer) notify(ctx context.Context, changes []Change) {
	if s.notifier == nil {
		return
	}

	var shown, hidden []string
	for _, c := range changes {
		if c.Visible {
			shown = append(shown, "`"+c.Item+"`")
		} else {
			hidden = append(hidden, "`"+c.Item+"`")
		}
	}

	var embeds []webhook.Embed
	if len(shown) > 0 {
		embeds = append(embeds, webhook.Embed{
			Title:       "Listings Shown",
			Description: strings.Join(shown, "\n"),
			Color:       webhook.ColorVisible,
		})
	}
	if len(hidden) > 0 {
		embeds = append(embeds, webhook.Embed{
			Title:       "Listings Hidden",
			Description: strings.Join(hidden, "\n"),
			Color:       webhook.ColorHidden,
		})
	}

	if err := s.notifier.Send(ctx, embeds...); err != nil {
		log.Warn("Failed to send webhook", "Error", err)
	}
}

// Run syncs once immediately and then on every tick until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("⏱️ Visibility watcher started", "Interval", interval)

	for {
		start := time.Now()
		res, err := s.SyncOnce(ctx)
		if err != nil && ctx.Err() == nil {
			log.Error("Visibility sync finished with errors", "Error", err)
		}
		log.Debug("[Interval Pass]", "Checked", res.Checked, "Changed", len(res.Changes), "Failed", res.Failed, "Took", time.Since(start))

		select {
		case <-ctx.Done():
			log.Info("Visibility watcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}
