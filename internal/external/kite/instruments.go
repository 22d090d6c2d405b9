package kite

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// instrumentsTTL bounds how long the cached instrument dump is reused.
// The exchange regenerates the dump once per day before the open.
const instrumentsTTL = 6 * time.Hour

// Instruments downloads the full instrument dump for the configured
// exchange. The endpoint returns CSV, not the usual JSON envelope.
func (c *Client) Instruments(ctx context.Context) ([]Instrument, error) {
	resp, err := c.request(ctx, "/instruments/"+c.cfg.Exchange, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch instruments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	return parseInstrumentsCSV(resp.Body)
}

// TokenMap resolves trading symbols to instrument tokens, reusing the
// cached dump when it is fresh. Symbols absent from the dump are simply
// missing from the result.
func (c *Client) TokenMap(ctx context.Context, symbols []string) (map[string]int64, error) {
	c.instrumentsMu.RLock()
	fresh := c.tokensBySymbol != nil && time.Since(c.instrumentsAt) < instrumentsTTL
	cached := c.tokensBySymbol
	c.instrumentsMu.RUnlock()

	if !fresh {
		instruments, err := c.Instruments(ctx)
		if err != nil {
			return nil, err
		}

		bySymbol := make(map[string]int64, len(instruments))
		for _, inst := range instruments {
			bySymbol[inst.TradingSymbol] = inst.Token
		}

		c.instrumentsMu.Lock()
		c.tokensBySymbol = bySymbol
		c.instrumentsAt = time.Now()
		c.instrumentsMu.Unlock()

		c.logger.WithField("instruments", len(bySymbol)).Info("Instrument dump refreshed")
		cached = bySymbol
	}

	out := make(map[string]int64, len(symbols))
	for _, symbol := range symbols {
		if token, ok := cached[symbol]; ok {
			out[symbol] = token
		}
	}
	return out, nil
}

func parseInstrumentsCSV(r io.Reader) ([]Instrument, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read instruments header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"instrument_token", "tradingsymbol"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("instruments CSV missing column %q", required)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	var instruments []Instrument
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read instruments row: %w", err)
		}

		token, err := strconv.ParseInt(field(record, "instrument_token"), 10, 64)
		if err != nil {
			continue
		}

		instruments = append(instruments, Instrument{
			Token:          token,
			TradingSymbol:  field(record, "tradingsymbol"),
			Name:           field(record, "name"),
			InstrumentType: field(record, "instrument_type"),
			Segment:        field(record, "segment"),
			Exchange:       field(record, "exchange"),
		})
	}

	return instruments, nil
}
