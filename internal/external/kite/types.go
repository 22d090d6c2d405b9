package kite

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// kiteTimeLayout is RFC3339 with a colonless zone offset, as returned
// by the historical candles endpoint ("2025-08-22T09:15:00+0530").
const kiteTimeLayout = "2006-01-02T15:04:05-0700"

// Instrument is one row of the exchange instrument dump
type Instrument struct {
	Token          int64
	TradingSymbol  string
	Name           string
	InstrumentType string
	Segment        string
	Exchange       string
}

// Candle is a single OHLCV bar from the historical endpoint. The wire
// format is a positional array, not an object.
type Candle struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// UnmarshalJSON decodes the positional candle array
// [timestamp, open, high, low, close, volume].
func (c *Candle) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < 6 {
		return fmt.Errorf("candle array has %d elements, want 6", len(raw))
	}

	var ts string
	if err := json.Unmarshal(raw[0], &ts); err != nil {
		return fmt.Errorf("candle timestamp: %w", err)
	}
	date, err := time.Parse(kiteTimeLayout, ts)
	if err != nil {
		return fmt.Errorf("candle timestamp %q: %w", ts, err)
	}
	c.Date = date

	floats := []*float64{&c.Open, &c.High, &c.Low, &c.Close}
	for i, dst := range floats {
		if err := json.Unmarshal(raw[i+1], dst); err != nil {
			return fmt.Errorf("candle field %d: %w", i+1, err)
		}
	}

	var volume float64
	if err := json.Unmarshal(raw[5], &volume); err != nil {
		return fmt.Errorf("candle volume: %w", err)
	}
	c.Volume = int64(volume)

	return nil
}

// Quote is a snapshot quote for one instrument. During a live session
// the OHLC close field carries the previous session's close.
type Quote struct {
	Symbol    string
	LastPrice float64
	Open      float64
	High      float64
	Low       float64
	PrevClose float64
	Volume    int64
	NetChange float64
	Timestamp time.Time
}

// quotePayload mirrors the wire shape of one entry in the quote response
type quotePayload struct {
	InstrumentToken int64   `json:"instrument_token"`
	Timestamp       string  `json:"timestamp"`
	LastPrice       float64 `json:"last_price"`
	Volume          int64   `json:"volume"`
	NetChange       float64 `json:"net_change"`
	OHLC            struct {
		Open  float64 `json:"open"`
		High  float64 `json:"high"`
		Low   float64 `json:"low"`
		Close float64 `json:"close"`
	} `json:"ohlc"`
}

func (p quotePayload) toQuote(symbol string) Quote {
	q := Quote{
		Symbol:    symbol,
		LastPrice: p.LastPrice,
		Open:      p.OHLC.Open,
		High:      p.OHLC.High,
		Low:       p.OHLC.Low,
		PrevClose: p.OHLC.Close,
		Volume:    p.Volume,
		NetChange: p.NetChange,
	}
	if ts, err := time.Parse(kiteTimeLayout, p.Timestamp); err == nil {
		q.Timestamp = ts
	}
	return q
}

// APIError is a non-success response from the broker API
type APIError struct {
	StatusCode int    `json:"-"`
	ErrorType  string `json:"error_type"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kite API error (status %d, %s): %s", e.StatusCode, e.ErrorType, e.Message)
}

// IsAuthError reports whether err is an authentication or authorization
// failure from the broker (expired or revoked access token).
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == 401 || apiErr.StatusCode == 403 {
		return true
	}
	return apiErr.ErrorType == "TokenException" || apiErr.ErrorType == "PermissionException"
}
