package market

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"

	"wfseller/internal/catalog"
	"wfseller/internal/common"
)

type itemInSet struct {
	ID      string `json:"id"`
	URLName string `json:"url_name"`
}

type itemResponse struct {
	Payload struct {
		Item struct {
			ID         string      `json:"id"`
			ItemsInSet []itemInSet `json:"items_in_set"`
		} `json:"item"`
	} `json:"payload"`
}

// Statistic is one bucket of marketplace trade statistics.
type Statistic struct {
	Datetime  string  `json:"datetime"`
	Volume    int     `json:"volume"`
	MinPrice  float64 `json:"min_price"`
	MaxPrice  float64 `json:"max_price"`
	AvgPrice  float64 `json:"avg_price"`
	Median    float64 `json:"median"`
	OrderType string  `json:"order_type"`
}

type statisticsResponse struct {
	Payload struct {
		StatisticsLive struct {
			Last48Hours []Statistic `json:"48hours"`
		} `json:"statistics_live"`
	} `json:"payload"`
}

// ResolveItemID asks the marketplace for the id of the item with the given
// name, bypassing the local catalog.
func (c *Client) ResolveItemID(ctx context.Context, name string) (string, error) {
	urlName := catalog.Canonicalize(name)
	path := "/items/" + url.PathEscape(urlName)

	var body itemResponse
	resp, err := c.sendJSON(ctx, http.MethodGet, path, nil, &body)
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: GET %s", common.ErrItemNotFound, path)
	}
	if err != nil {
		return "", err
	}

	for _, part := range body.Payload.Item.ItemsInSet {
		if part.URLName == urlName && part.ID != "" {
			return part.ID, nil
		}
	}

	if body.Payload.Item.ID == "" {
		return "", fmt.Errorf("%w: GET %s returned no item id", common.ErrItemNotFound, path)
	}
	return body.Payload.Item.ID, nil
}

// Statistics returns the live statistics of the last 48 hours for an item.
func (c *Client) Statistics(ctx context.Context, name string) ([]Statistic, error) {
	path := "/items/" + url.PathEscape(catalog.Canonicalize(name)) + "/statistics"

	var body statisticsResponse
	resp, err := c.sendJSON(ctx, http.MethodGet, path, nil, &body)
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: GET %s", common.ErrItemNotFound, path)
	}
	if err != nil {
		return nil, err
	}

	return body.Payload.StatisticsLive.Last48Hours, nil
}

// AveragePrice returns the rounded up mean sell price of the item over the
// last 48 hours. ok is false when there were no sell statistics.
func (c *Client) AveragePrice(ctx context.Context, name string) (price int, ok bool, err error) {
	stats, err := c.Statistics(ctx, name)
	if err != nil {
		return 0, false, err
	}

	price, ok = AveragePrice(stats)
	return price, ok, nil
}

// AveragePrice is the rounded up mean of avg_price across sell-side entries.
func AveragePrice(stats []Statistic) (int, bool) {
	var sum float64
	n := 0
	for _, s := range stats {
		if s.OrderType != "sell" {
			continue
		}
		sum += s.AvgPrice
		n++
	}

	if n == 0 {
		return 0, false
	}
	return int(math.Ceil(sum / float64(n))), true
}
