package kite

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// DailyOHLC fetches daily candles for one instrument over the inclusive
// [from, to] date range. Candles come back in chronological order.
func (c *Client) DailyOHLC(ctx context.Context, token int64, from, to time.Time) ([]Candle, error) {
	path := fmt.Sprintf("/instruments/historical/%d/day", token)

	query := url.Values{}
	query.Set("from", from.Format("2006-01-02"))
	query.Set("to", to.Format("2006-01-02"))

	resp, err := c.request(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("fetch daily candles: %w", err)
	}

	var data struct {
		Candles []Candle `json:"candles"`
	}
	if err := decodeResponse(resp, &data); err != nil {
		return nil, err
	}

	return data.Candles, nil
}
