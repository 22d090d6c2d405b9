package kite

import (
	"context"
	"net/url"
)

// quoteBatchSize is the broker-side cap on instruments per quote call
const quoteBatchSize = 20

// Quotes fetches snapshot quotes for the given trading symbols, batching
// requests to respect the per-call instrument cap. Symbols the broker
// does not recognize are absent from the result, never zero-filled.
func (c *Client) Quotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	out := make(map[string]Quote, len(symbols))

	for start := 0; start < len(symbols); start += quoteBatchSize {
		end := min(start+quoteBatchSize, len(symbols))
		batch := symbols[start:end]

		query := url.Values{}
		for _, symbol := range batch {
			query.Add("i", c.cfg.Exchange+":"+symbol)
		}

		resp, err := c.request(ctx, "/quote", query)
		if err != nil {
			return nil, err
		}

		payload := make(map[string]quotePayload, len(batch))
		if err := decodeResponse(resp, &payload); err != nil {
			return nil, err
		}

		for _, symbol := range batch {
			if p, ok := payload[c.cfg.Exchange+":"+symbol]; ok {
				out[symbol] = p.toQuote(symbol)
			}
		}
	}

	return out, nil
}
