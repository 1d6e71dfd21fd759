package database

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"wfseller/internal/catalog"
	"wfseller/internal/common"
	"wfseller/internal/gamedata"
	"wfseller/internal/storage"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
)

const exhaustedKey = "exhausted_syndicates"

// Listing is the local record of one tradeable item and its sell order.
type Listing struct {
	Syndicates   []string   `json:"syndicates"`
	OrderID      string     `json:"orderID,omitempty"`
	SellPrice    int        `json:"sellPrice,omitempty"`
	Quantity     int        `json:"quantity,omitempty"`
	Visible      *bool      `json:"visible,omitempty"`
	LastModified *time.Time `json:"lastModified,omitempty"`
}

func (l Listing) HasOrder() bool {
	return l.OrderID != ""
}

// Database is the listings file: one entry per item name plus the set of
// syndicates the user has exhausted. The exhausted set is maintained by hand.
type Database struct {
	path      string
	Exhausted []string
	Listings  map[string]*Listing
	now       func() time.Time
}

func New(path string) *Database {
	return &Database{
		path:     path,
		Listings: make(map[string]*Listing),
		now:      time.Now,
	}
}

func Load(path string) (*Database, error) {
	var raw map[string]json.RawMessage
	if err := storage.ReadJSON(path, &raw); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	db := New(path)
	for _, key := range keys {
		value := raw[key]
		if key == exhaustedKey {
			if err := json.Unmarshal(value, &db.Exhausted); err != nil {
				return nil, fmt.Errorf("database: %w: parse %s in %s: %v", common.ErrStorageUnavailable, exhaustedKey, path, err)
			}
			continue
		}

		var l Listing
		if err := json.Unmarshal(value, &l); err != nil {
			return nil, fmt.Errorf("database: %w: parse entry %q in %s: %v", common.ErrStorageUnavailable, key, path, err)
		}

		// Hand edited files may use display names. Entries are always keyed
		// canonically, and on a collision the one holding an order wins.
		name := catalog.Canonicalize(key)
		if prev, dup := db.Listings[name]; dup {
			log.Warn("Duplicate listing in database, keeping one", "Key", key, "Item", name)
			if prev.HasOrder() || !l.HasOrder() {
				continue
			}
		}
		db.Listings[name] = &l
	}

	return db, nil
}

// LoadOrEmpty is Load, except a missing file yields an empty database.
func LoadOrEmpty(path string) (*Database, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return New(path), nil
	}
	return Load(path)
}

func (db *Database) Save() error {
	doc := make(map[string]any, len(db.Listings)+1)
	exhausted := db.Exhausted
	if exhausted == nil {
		exhausted = []string{}
	}
	doc[exhaustedKey] = exhausted
	for name, l := range db.Listings {
		doc[name] = l
	}

	if err := storage.WriteJSON(db.path, doc); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

// Names returns the listed item names in sorted order.
func (db *Database) Names() []string {
	names := make([]string, 0, len(db.Listings))
	for name := range db.Listings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (db *Database) Get(name string) (*Listing, bool) {
	l, ok := db.Listings[catalog.Canonicalize(name)]
	return l, ok
}

func (db *Database) getOrCreate(name string) *Listing {
	key := catalog.Canonicalize(name)
	l, ok := db.Listings[key]
	if !ok {
		l = &Listing{Syndicates: []string{}}
		db.Listings[key] = l
	}
	return l
}

// Seed adds an entry for every augment not yet in the database. Syndicates
// of existing entries are never rewritten.
func (db *Database) Seed(mods []gamedata.Mod) int {
	added := 0
	for _, m := range mods {
		key := catalog.Canonicalize(m.Name)
		if key == "" {
			continue
		}
		if _, ok := db.Listings[key]; ok {
			continue
		}
		syndicates := m.Syndicates()
		if syndicates == nil {
			syndicates = []string{}
		}
		db.Listings[key] = &Listing{Syndicates: syndicates}
		added++
	}
	return added
}

func (db *Database) touch(l *Listing) {
	now := db.now().UTC()
	l.LastModified = &now
}

// MarkPosted records a freshly created, visible sell order.
func (db *Database) MarkPosted(name, orderID string, price, quantity int) {
	l := db.getOrCreate(name)
	visible := true
	l.OrderID = orderID
	l.SellPrice = price
	l.Quantity = quantity
	l.Visible = &visible
	db.touch(l)
}

// MarkDeleted clears the order of an item.
func (db *Database) MarkDeleted(name string) {
	l, ok := db.Get(name)
	if !ok {
		return
	}
	l.OrderID = ""
	l.Visible = nil
	db.touch(l)
}

func (db *Database) MarkVisibility(name string, visible bool) {
	l, ok := db.Get(name)
	if !ok {
		return
	}
	l.Visible = &visible
	db.touch(l)
}
