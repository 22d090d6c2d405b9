package contracts

import "time"

// TradingSession represents one resolved trading day.
// Immutable once computed for a given date and holiday set.
type TradingSession struct {
	Date         time.Time `json:"date"`
	IsTradingDay bool      `json:"is_trading_day"`
}

// DateKey returns the session date in YYYY-MM-DD form, the key used
// for bar matching and log fields.
func (s TradingSession) DateKey() string {
	return s.Date.Format("2006-01-02")
}

// SameDay reports whether t falls on the session date, ignoring clock time.
func (s TradingSession) SameDay(t time.Time) bool {
	y1, m1, d1 := s.Date.Date()
	y2, m2, d2 := t.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
