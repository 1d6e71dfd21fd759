package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wfseller/internal/common"

	"github.com/charmbracelet/log"
)

// OrderRequest describes a sell order to post.
type OrderRequest struct {
	ItemName  string
	SellPrice int
	Quantity  int
}

func (r OrderRequest) Validate() error {
	if strings.TrimSpace(r.ItemName) == "" {
		return fmt.Errorf("%w: item name is empty", common.ErrInvalidOrder)
	}
	if r.SellPrice <= 0 {
		return fmt.Errorf("%w: sell price must be positive, got %d", common.ErrInvalidOrder, r.SellPrice)
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", common.ErrInvalidOrder, r.Quantity)
	}
	return nil
}

type OrderPayload struct {
	Item      string `json:"item"`
	OrderType string `json:"order_type"`
	Platinum  int    `json:"platinum"`
	Quantity  int    `json:"quantity"`
	Rank      int    `json:"rank"`
	Visible   bool   `json:"visible"`
}

// OrderUpdate carries the fields to change on an existing order. Nil fields
// are left untouched.
type OrderUpdate struct {
	OrderID  string `json:"order_id"`
	Platinum *int   `json:"platinum,omitempty"`
	Quantity *int   `json:"quantity,omitempty"`
	Visible  *bool  `json:"visible,omitempty"`
}

type orderResponse struct {
	Payload struct {
		Order struct {
			ID string `json:"id"`
		} `json:"order"`
	} `json:"payload"`
}

func orderPath(orderID string) string {
	return "/profile/orders/" + url.PathEscape(orderID)
}

// CreateOrder posts a visible rank 0 sell order and returns its id. The
// request is validated before anything else happens, and the item id comes
// from the local catalog.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if c.catalog == nil {
		return "", fmt.Errorf("create order for %q: no catalog loaded", req.ItemName)
	}

	itemID, err := c.catalog.Lookup(req.ItemName)
	if err != nil {
		return "", err
	}

	payload := OrderPayload{
		Item:      itemID,
		OrderType: "sell",
		Platinum:  req.SellPrice,
		Quantity:  req.Quantity,
		Rank:      0,
		Visible:   true,
	}

	start := time.Now()
	var body orderResponse
	if _, err := c.sendJSON(ctx, http.MethodPost, "/profile/orders", payload, &body); err != nil {
		return "", fmt.Errorf("create order for %q: %w", req.ItemName, err)
	}

	if body.Payload.Order.ID == "" {
		return "", fmt.Errorf("create order for %q: response carried no order id", req.ItemName)
	}

	log.Debug("Order created", "Item", req.ItemName, "Order", body.Payload.Order.ID, "Latency", time.Since(start))
	return body.Payload.Order.ID, nil
}

// DeleteOrder removes an order. A failed delete is treated as if the order
// were already gone. Only a missing session is reported, since then no
// request was made at all.
func (c *Client) DeleteOrder(ctx context.Context, orderID string) error {
	path := orderPath(orderID)

	resp, err := c.send(ctx, http.MethodDelete, path, nil)
	if err != nil {
		if errors.Is(err, common.ErrNotAuthenticated) {
			return err
		}
		log.Warn("Delete request failed, assuming the order is already gone", "Order", orderID, "Error", err)
		return nil
	}

	if !isSuccess(resp.StatusCode) {
		log.Warn("Delete was refused, assuming the order is already gone", "Order", orderID, "Status", resp.StatusCode)
	}
	return nil
}

// UpdateOrder changes price, quantity or visibility of an existing order.
func (c *Client) UpdateOrder(ctx context.Context, orderID string, update OrderUpdate) error {
	update.OrderID = orderID
	if _, err := c.sendJSON(ctx, http.MethodPut, orderPath(orderID), update, nil); err != nil {
		return fmt.Errorf("update order %s: %w", orderID, err)
	}
	return nil
}

func (c *Client) SetOrderVisibility(ctx context.Context, orderID string, visible bool) error {
	return c.UpdateOrder(ctx, orderID, OrderUpdate{Visible: &visible})
}
