package marketconfig

import "time"

// Config is the market calendar and scoring threshold configuration.
// Injected as data into the calendar and scoring components; nothing
// here is computed by the core.
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Session    Session    `yaml:"session" json:"session"`
	Calendar   Calendar   `yaml:"calendar" json:"calendar"`
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
}

// Meta identifies the market the configuration describes
type Meta struct {
	Market   string `yaml:"market" json:"market"`
	Timezone string `yaml:"timezone" json:"timezone"`
}

// Session holds the trading session clock times (market local time)
type Session struct {
	PreMarketOpen   string `yaml:"pre_market_open" json:"pre_market_open"`     // HH:MM
	MarketOpen      string `yaml:"market_open" json:"market_open"`             // HH:MM
	MarketClose     string `yaml:"market_close" json:"market_close"`           // HH:MM
	PostMarketClose string `yaml:"post_market_close" json:"post_market_close"` // HH:MM
}

// Calendar holds the non-trading dates and the search bound
type Calendar struct {
	Holidays        []string `yaml:"holidays" json:"holidays"` // YYYY-MM-DD
	MaxLookbackDays int      `yaml:"max_lookback_days" json:"max_lookback_days"`
}

// Band is one scoring band: values >= Min earn Score. Bands are listed
// highest-first; the first match wins. Volume bands also carry the
// bucket Label so score and bucket share breakpoints by construction.
type Band struct {
	Min   float64 `yaml:"min" json:"min"`
	Score int     `yaml:"score" json:"score"`
	Label string  `yaml:"label,omitempty" json:"label,omitempty"`
}

// CategoryBand maps a minimum composite score to a priority label
type CategoryBand struct {
	Min   int    `yaml:"min" json:"min"`
	Label string `yaml:"label" json:"label"`
}

// Thresholds holds every scoring breakpoint
type Thresholds struct {
	VolumeBands     []Band `yaml:"volume_bands" json:"volume_bands"`
	VolumeBaseScore int    `yaml:"volume_base_score" json:"volume_base_score"`
	VolumeBaseLabel string `yaml:"volume_base_label" json:"volume_base_label"`

	MovementBands     []Band `yaml:"movement_bands" json:"movement_bands"`
	MovementBaseScore int    `yaml:"movement_base_score" json:"movement_base_score"`

	VolatilityBands     []Band `yaml:"volatility_bands" json:"volatility_bands"`
	VolatilityBaseScore int    `yaml:"volatility_base_score" json:"volatility_base_score"`

	Categories        []CategoryBand `yaml:"categories" json:"categories"`
	CategoryBaseLabel string         `yaml:"category_base_label" json:"category_base_label"`
}

// HolidaySet returns the holidays keyed by YYYY-MM-DD for O(1) membership.
// Call after Validate; unparseable entries are skipped here.
func (c *Config) HolidaySet() map[string]bool {
	set := make(map[string]bool, len(c.Calendar.Holidays))
	for _, h := range c.Calendar.Holidays {
		if _, err := time.Parse("2006-01-02", h); err != nil {
			continue
		}
		set[h] = true
	}
	return set
}

// Location resolves the configured market timezone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Meta.Timezone)
}

// MarketOpenClock returns the market open as hour and minute.
// Call after Validate; a malformed value returns zeros.
func (s Session) MarketOpenClock() (hour, minute int) {
	t, err := time.Parse("15:04", s.MarketOpen)
	if err != nil {
		return 0, 0
	}
	return t.Hour(), t.Minute()
}

// Default returns the built-in NSE configuration used when no YAML file
// is supplied.
func Default() *Config {
	return &Config{
		Meta: Meta{
			Market:   "NSE",
			Timezone: "Asia/Kolkata",
		},
		Session: Session{
			PreMarketOpen:   "09:00",
			MarketOpen:      "09:15",
			MarketClose:     "15:30",
			PostMarketClose: "16:00",
		},
		Calendar: Calendar{
			// Major Indian market holidays 2025
			Holidays: []string{
				"2025-01-26", // Republic Day
				"2025-03-14", // Holi
				"2025-04-18", // Good Friday
				"2025-08-15", // Independence Day
				"2025-10-02", // Gandhi Jayanti
				"2025-11-01", // Diwali
				"2025-12-25", // Christmas
			},
			MaxLookbackDays: 14,
		},
		Thresholds: Thresholds{
			VolumeBands: []Band{
				{Min: 5_000_000, Score: 40, Label: "Very High"},
				{Min: 1_000_000, Score: 30, Label: "High"},
				{Min: 75_000, Score: 20, Label: "Medium"},
			},
			VolumeBaseScore: 10,
			VolumeBaseLabel: "Low",

			MovementBands: []Band{
				{Min: 5, Score: 30},
				{Min: 3, Score: 25},
				{Min: 1, Score: 15},
			},
			MovementBaseScore: 5,

			VolatilityBands: []Band{
				{Min: 8, Score: 30},
				{Min: 5, Score: 25},
				{Min: 3, Score: 15},
			},
			VolatilityBaseScore: 5,

			Categories: []CategoryBand{
				{Min: 80, Label: "Very High"},
				{Min: 60, Label: "High"},
				{Min: 40, Label: "Medium"},
			},
			CategoryBaseLabel: "Low",
		},
	}
}
