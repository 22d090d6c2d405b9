package universe

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/config"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/httputil"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

// focusStocks is the curated high-liquidity NSE watchlist the analyzer
// scans by default, grouped by sector.
var focusStocks = []string{
	// Banking & financial services
	"HDFCBANK", "ICICIBANK", "SBIN", "KOTAKBANK", "AXISBANK", "INDUSINDBK",
	"BAJFINANCE", "BAJAJFINSV", "SBILIFE", "HDFCLIFE",

	// Information technology
	"TCS", "INFY", "HCLTECH", "WIPRO", "TECHM", "LTI", "MINDTREE",

	// Oil & gas
	"RELIANCE", "ONGC", "BPCL", "IOCL", "GAIL",

	// Consumer goods
	"HINDUNILVR", "ITC", "NESTLEIND", "BRITANNIA", "DABUR", "MARICO",
	"GODREJCP", "COLPAL", "TATACONSUM",

	// Automobiles
	"MARUTI", "TATAMOTORS", "BAJAJ-AUTO", "HEROMOTOCO", "EICHERMOT",
	"MAHINDRA", "ASHOKLEY",

	// Pharmaceuticals
	"SUNPHARMA", "DRREDDY", "CIPLA", "DIVISLAB", "BIOCON", "LUPIN",

	// Metals & mining
	"TATASTEEL", "JSWSTEEL", "HINDALCO", "VEDL", "COALINDIA", "SAIL", "NMDC",

	// Cement
	"ULTRACEMCO", "GRASIM", "ACC", "AMBUJACEMENT",

	// Telecom
	"BHARTIARTL", "IDEA",

	// Power
	"POWERGRID", "NTPC", "ADANIPOWER",

	// Infrastructure
	"LT", "ADANIPORTS",

	// Retail & e-commerce
	"DMART", "ZOMATO", "NYKAA", "PAYTM",

	// Paints & chemicals
	"ASIANPAINT", "BERGERPAINTS", "PIDILITIND",

	// Airlines
	"INDIGO", "SPICEJET",

	// Media & entertainment
	"ZEEL", "SUNTV", "NETWORK18",
}

// FocusStocks returns a copy of the curated watchlist
func FocusStocks() []string {
	out := make([]string, len(focusStocks))
	copy(out, focusStocks)
	return out
}

// Provider resolves the symbol universe to analyze: the curated focus
// list by default, optionally broadened with downloaded index
// constituents.
type Provider struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.UniverseConfig
}

// NewProvider creates a universe provider
func NewProvider(cfg config.UniverseConfig, httpClient *httputil.Client, log *logger.Logger) *Provider {
	return &Provider{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
	}
}

// Symbols returns the universe to analyze. With broaden set it merges
// the downloaded index constituents after the focus list; a failed
// download degrades to the focus list alone.
func (p *Provider) Symbols(ctx context.Context, broaden bool) []string {
	if !broaden {
		return FocusStocks()
	}

	constituents, err := p.FetchIndexConstituents(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("Index constituents download failed, using focus list")
		return FocusStocks()
	}

	return mergeSymbols(FocusStocks(), constituents)
}

// FetchIndexConstituents downloads the configured index constituent CSV
// (NSE archive format) and returns the symbol column in file order.
func (p *Provider) FetchIndexConstituents(ctx context.Context) ([]string, error) {
	resp, err := p.httpClient.Get(ctx, p.cfg.ConstituentsURL)
	if err != nil {
		return nil, fmt.Errorf("download constituents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download constituents: status %d", resp.StatusCode)
	}

	symbols, err := parseConstituentsCSV(resp.Body)
	if err != nil {
		return nil, err
	}

	p.logger.WithField("symbols", len(symbols)).Info("Index constituents downloaded")
	return symbols, nil
}

// parseConstituentsCSV extracts the Symbol column from an NSE index
// constituent file ("Company Name,Industry,Symbol,Series,ISIN Code").
func parseConstituentsCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read constituents header: %w", err)
	}

	symbolCol := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "Symbol") {
			symbolCol = i
			break
		}
	}
	if symbolCol == -1 {
		return nil, fmt.Errorf("constituents CSV missing Symbol column")
	}

	var symbols []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read constituents row: %w", err)
		}
		if symbolCol >= len(record) {
			continue
		}

		symbol := strings.ToUpper(strings.TrimSpace(record[symbolCol]))
		if symbol != "" {
			symbols = append(symbols, symbol)
		}
	}

	return symbols, nil
}

// mergeSymbols appends extras to base, dropping duplicates and keeping
// first-seen order.
func mergeSymbols(base, extras []string) []string {
	seen := make(map[string]bool, len(base)+len(extras))
	out := make([]string, 0, len(base)+len(extras))

	for _, lists := range [][]string{base, extras} {
		for _, symbol := range lists {
			if seen[symbol] {
				continue
			}
			seen[symbol] = true
			out = append(out, symbol)
		}
	}
	return out
}
