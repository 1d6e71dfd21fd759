// Package catalog keeps the local cache of marketplace item ids keyed by
// canonical item name.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"wfseller/internal/common"
	"wfseller/internal/rate_limiter"
	"wfseller/internal/storage"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

var canonicalReplacer = strings.NewReplacer(
	"'", "",
	"’", "",
	"&", "and",
	" ", "_",
)

// Canonicalize turns a display name such as "Abating Link" into the
// marketplace url name "abating_link".
func Canonicalize(name string) string {
	return canonicalReplacer.Replace(strings.ToLower(name))
}

// NameSource lists the display names of every item worth cataloguing.
type NameSource interface {
	Names(ctx context.Context) ([]string, error)
}

// Resolver looks up a single item id on the marketplace.
type Resolver interface {
	ResolveItemID(ctx context.Context, name string) (string, error)
}

type Catalog struct {
	path    string
	entries map[string]string
}

func New(path string) *Catalog {
	return &Catalog{path: path, entries: make(map[string]string)}
}

// Load reads the catalog file at path. Both the object form {"name": "id"}
// and the older array form [["name", "id"], ...] are accepted.
func Load(path string) (*Catalog, error) {
	var raw json.RawMessage
	if err := storage.ReadJSON(path, &raw); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	c := New(path)
	if err := c.decode(raw); err != nil {
		return nil, fmt.Errorf("catalog: %w: parse %s: %v", common.ErrStorageUnavailable, path, err)
	}

	return c, nil
}

// LoadOrEmpty is Load, except a missing file yields an empty catalog.
func LoadOrEmpty(path string) (*Catalog, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return New(path), nil
	}
	return Load(path)
}

func (c *Catalog) decode(raw json.RawMessage) error {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var pairs [][]string
		if err := json.Unmarshal(raw, &pairs); err != nil {
			return err
		}
		for i, pair := range pairs {
			if len(pair) != 2 {
				return fmt.Errorf("entry %d has %d elements, want 2", i, len(pair))
			}
			c.entries[Canonicalize(pair[0])] = pair[1]
		}
		return nil
	}

	var entries map[string]string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return err
	}
	for name, id := range entries {
		c.entries[Canonicalize(name)] = id
	}
	return nil
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

// Lookup returns the item id for name, canonicalizing it first.
func (c *Catalog) Lookup(name string) (string, error) {
	canonical := Canonicalize(name)
	if id, ok := c.entries[canonical]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %q is not in catalog %s", common.ErrItemNotFound, canonical, c.path)
}

func (c *Catalog) Set(name, id string) {
	c.entries[Canonicalize(name)] = id
}

// Names returns every catalogued name in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns a copy of the name to id mapping.
func (c *Catalog) Entries() map[string]string {
	out := make(map[string]string, len(c.entries))
	for name, id := range c.entries {
		out[name] = id
	}
	return out
}

func (c *Catalog) Save() error {
	if err := storage.WriteJSON(c.path, c.entries); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	return nil
}

// Refresh rebuilds the catalog from scratch: every name from source is
// canonicalized and resolved against the marketplace, waiting on limiter
// between lookups. Items that fail to resolve are left out. The result
// replaces the previous contents and is saved. A lost session aborts the
// refresh, and a refresh that resolves nothing keeps the old catalog.
func (c *Catalog) Refresh(ctx context.Context, source NameSource, resolver Resolver, limiter *rate.Limiter) (int, error) {
	names, err := source.Names(ctx)
	if err != nil {
		return 0, fmt.Errorf("catalog refresh: %w", err)
	}

	seen := make(map[string]struct{}, len(names))
	canonical := make([]string, 0, len(names))
	for _, name := range names {
		n := Canonicalize(name)
		if _, dup := seen[n]; dup || n == "" {
			continue
		}
		seen[n] = struct{}{}
		canonical = append(canonical, n)
	}

	log.Info("📚 Refreshing catalog", "Items", len(canonical))

	fresh := make(map[string]string, len(canonical))
	failed := 0
	for i, name := range canonical {
		if err := rate_limiter.SleepUntilReady(ctx, limiter); err != nil {
			return 0, fmt.Errorf("catalog refresh interrupted after %d of %d items: %w", i, len(canonical), err)
		}

		id, err := resolver.ResolveItemID(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return 0, fmt.Errorf("catalog refresh interrupted after %d of %d items: %w", i, len(canonical), ctx.Err())
			}
			if errors.Is(err, common.ErrNotAuthenticated) {
				return 0, fmt.Errorf("catalog refresh stopped after %d of %d items: %w", i, len(canonical), err)
			}
			failed++
			log.Warn("Could not resolve item, leaving it out of the catalog", "Item", name, "Error", err)
			continue
		}

		fresh[name] = id
		log.Debug("Resolved item", "Item", name, "Id", id, "Progress", fmt.Sprintf("%d/%d", i+1, len(canonical)))
	}

	if len(fresh) == 0 && len(canonical) > 0 {
		return 0, fmt.Errorf("catalog refresh: none of %d items resolved, keeping the previous catalog", len(canonical))
	}

	c.entries = fresh
	if err := c.Save(); err != nil {
		return len(fresh), err
	}

	log.Info("📚 Catalog refreshed", "Resolved", len(fresh), "Failed", failed)
	return len(fresh), nil
}
