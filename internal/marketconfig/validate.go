package marketconfig

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ValidationError is a fatal configuration defect. The analyzer never
// retries these; the process is expected to stop.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints.
// Returns an error on the first violation; the caller aborts.
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.Market == "" {
		return ValidationError{"meta.market", "required"}
	}
	if cfg.Meta.Timezone == "" {
		return ValidationError{"meta.timezone", "required"}
	}
	if _, err := time.LoadLocation(cfg.Meta.Timezone); err != nil {
		return ValidationError{"meta.timezone", fmt.Sprintf("unknown timezone: %v", err)}
	}

	// === Session ===
	if err := validateHHMM(cfg.Session.PreMarketOpen); err != nil {
		return ValidationError{"session.pre_market_open", err.Error()}
	}
	if err := validateHHMM(cfg.Session.MarketOpen); err != nil {
		return ValidationError{"session.market_open", err.Error()}
	}
	if err := validateHHMM(cfg.Session.MarketClose); err != nil {
		return ValidationError{"session.market_close", err.Error()}
	}
	if err := validateHHMM(cfg.Session.PostMarketClose); err != nil {
		return ValidationError{"session.post_market_close", err.Error()}
	}

	// Session order: pre-market open < market open < close <= post close
	pre, _ := time.Parse("15:04", cfg.Session.PreMarketOpen)
	open, _ := time.Parse("15:04", cfg.Session.MarketOpen)
	cls, _ := time.Parse("15:04", cfg.Session.MarketClose)
	post, _ := time.Parse("15:04", cfg.Session.PostMarketClose)
	if !pre.Before(open) {
		return ValidationError{"session", "pre_market_open must be before market_open"}
	}
	if !open.Before(cls) {
		return ValidationError{"session", "market_open must be before market_close"}
	}
	if post.Before(cls) {
		return ValidationError{"session", "post_market_close must not be before market_close"}
	}

	// === Calendar ===
	if cfg.Calendar.MaxLookbackDays <= 0 {
		return ValidationError{"calendar.max_lookback_days", "must be > 0"}
	}
	seen := make(map[string]bool, len(cfg.Calendar.Holidays))
	for i, h := range cfg.Calendar.Holidays {
		if _, err := time.Parse("2006-01-02", h); err != nil {
			return ValidationError{
				Field:   fmt.Sprintf("calendar.holidays[%d]", i),
				Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", h),
			}
		}
		if seen[h] {
			return ValidationError{
				Field:   fmt.Sprintf("calendar.holidays[%d]", i),
				Message: fmt.Sprintf("duplicate date %s", h),
			}
		}
		seen[h] = true
	}

	// === Thresholds ===
	t := cfg.Thresholds
	if err := validateBands(t.VolumeBands, true); err != nil {
		return ValidationError{"thresholds.volume_bands", err.Error()}
	}
	if t.VolumeBaseScore <= 0 {
		return ValidationError{"thresholds.volume_base_score", "must be > 0"}
	}
	if t.VolumeBaseLabel == "" {
		return ValidationError{"thresholds.volume_base_label", "required"}
	}
	if err := validateBands(t.MovementBands, false); err != nil {
		return ValidationError{"thresholds.movement_bands", err.Error()}
	}
	if t.MovementBaseScore <= 0 {
		return ValidationError{"thresholds.movement_base_score", "must be > 0"}
	}
	if err := validateBands(t.VolatilityBands, false); err != nil {
		return ValidationError{"thresholds.volatility_bands", err.Error()}
	}
	if t.VolatilityBaseScore <= 0 {
		return ValidationError{"thresholds.volatility_base_score", "must be > 0"}
	}

	if len(t.Categories) == 0 {
		return ValidationError{"thresholds.categories", "must not be empty"}
	}
	for i, c := range t.Categories {
		if c.Label == "" {
			return ValidationError{
				Field:   fmt.Sprintf("thresholds.categories[%d].label", i),
				Message: "required",
			}
		}
		if i > 0 && c.Min >= t.Categories[i-1].Min {
			return ValidationError{
				Field:   fmt.Sprintf("thresholds.categories[%d].min", i),
				Message: "categories must be strictly descending by min",
			}
		}
	}
	if t.CategoryBaseLabel == "" {
		return ValidationError{"thresholds.category_base_label", "required"}
	}

	return nil
}

// === Helper Functions ===

func validateHHMM(s string) error {
	re := regexp.MustCompile(`^\d{2}:\d{2}$`)
	if !re.MatchString(s) {
		return errors.New("must be HH:MM format")
	}
	_, err := time.Parse("15:04", s)
	return err
}

// validateBands checks a descending, non-overlapping band list.
// needLabels is set for volume bands, which double as bucket labels.
func validateBands(bands []Band, needLabels bool) error {
	if len(bands) == 0 {
		return errors.New("must not be empty")
	}
	for i, b := range bands {
		if b.Min < 0 {
			return fmt.Errorf("[%d].min must be >= 0", i)
		}
		if b.Score <= 0 {
			return fmt.Errorf("[%d].score must be > 0", i)
		}
		if needLabels && b.Label == "" {
			return fmt.Errorf("[%d].label required", i)
		}
		if i > 0 {
			if b.Min >= bands[i-1].Min {
				return fmt.Errorf("[%d].min must be strictly descending", i)
			}
			if b.Score >= bands[i-1].Score {
				return fmt.Errorf("[%d].score must be strictly descending", i)
			}
		}
	}
	return nil
}
