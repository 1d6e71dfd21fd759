// Package gamedata reads augment mod metadata (names and drop tables) from
// the community game-data API.
package gamedata

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"wfseller/internal/common"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/gocolly/colly"
)

const DefaultBaseURL = "https://api.warframestat.us"

// excludedLocation marks drop sources from the PvP mode, which never count as
// a syndicate source.
const excludedLocation = "conclave"

type Drop struct {
	Location string  `json:"location"`
	Type     string  `json:"type"`
	Rarity   string  `json:"rarity"`
	Chance   float64 `json:"chance"`
}

type Mod struct {
	Name      string `json:"name"`
	IsAugment bool   `json:"isAugment"`
	Drops     []Drop `json:"drops"`
}

// Syndicates lists the distinct syndicates an augment can be bought from.
func (m Mod) Syndicates() []string {
	seen := make(map[string]struct{}, len(m.Drops))
	var out []string
	for _, d := range m.Drops {
		loc := strings.TrimSpace(d.Location)
		if loc == "" || strings.Contains(strings.ToLower(loc), excludedLocation) {
			continue
		}
		if _, dup := seen[loc]; dup {
			continue
		}
		seen[loc] = struct{}{}
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}

type Client struct {
	baseURL string
	timeout time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

func (c *Client) modsURL() string {
	q := url.Values{}
	q.Set("language", "en")
	q.Set("only", "name,isAugment,drops")
	return c.baseURL + "/mods?" + q.Encode()
}

// Mods fetches every mod with its drop table.
func (c *Client) Mods(ctx context.Context) ([]Mod, error) {
	endpoint := "GET /mods"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	collector := colly.NewCollector(colly.AllowURLRevisit())
	collector.MaxBodySize = 0
	if c.timeout > 0 {
		collector.SetRequestTimeout(c.timeout)
	}

	var (
		mods      []Mod
		decodeErr error
	)
	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "application/json")
	})
	collector.OnResponse(func(r *colly.Response) {
		if err := json.Unmarshal(r.Body, &mods); err != nil {
			decodeErr = fmt.Errorf("failed to unmarshal %s response: %w", endpoint, err)
		}
	})

	start := time.Now()
	if err := collector.Visit(c.modsURL()); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, common.TransportError(endpoint, err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if decodeErr != nil {
		return nil, decodeErr
	}

	log.Debug("Fetched game data", "Mods", len(mods), "Latency", time.Since(start))
	return mods, nil
}

// Augments returns only the augment mods.
func (c *Client) Augments(ctx context.Context) ([]Mod, error) {
	mods, err := c.Mods(ctx)
	if err != nil {
		return nil, err
	}

	augments := make([]Mod, 0, len(mods))
	for _, m := range mods {
		if m.IsAugment && m.Name != "" {
			augments = append(augments, m)
		}
	}
	return augments, nil
}

// Names lists augment display names, used to rebuild the catalog.
func (c *Client) Names(ctx context.Context) ([]string, error) {
	augments, err := c.Augments(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(augments))
	for _, m := range augments {
		names = append(names, m.Name)
	}
	return names, nil
}
