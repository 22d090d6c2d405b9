package universe

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/config"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/httputil"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

const constituentsCSV = `Company Name,Industry,Symbol,Series,ISIN Code
Reliance Industries Ltd.,Oil Gas & Consumable Fuels,RELIANCE,EQ,INE002A01018
Avenue Supermarts Ltd.,Consumer Services,DMART,EQ,INE192R01011
Jubilant FoodWorks Ltd.,Consumer Services,JUBLFOOD,EQ,INE797F01020
`

func newTestProvider(url string) *Provider {
	cfg := &config.Config{LogLevel: "error", LogFormat: "json", Env: "test"}
	log := logger.New(cfg)

	return NewProvider(config.UniverseConfig{ConstituentsURL: url},
		httputil.New(cfg, log).DisableRetry(), log)
}

func TestFocusStocksIsACopy(t *testing.T) {
	first := FocusStocks()
	first[0] = "MUTATED"

	assert.Equal(t, "HDFCBANK", FocusStocks()[0])
	assert.Greater(t, len(FocusStocks()), 70)
}

func TestFocusStocksHasNoDuplicates(t *testing.T) {
	seen := make(map[string]bool)
	for _, symbol := range FocusStocks() {
		assert.False(t, seen[symbol], "duplicate symbol %s", symbol)
		seen[symbol] = true
	}
}

func TestFetchIndexConstituents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, constituentsCSV)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	symbols, err := provider.FetchIndexConstituents(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"RELIANCE", "DMART", "JUBLFOOD"}, symbols)
}

func TestSymbolsBroadenMergesWithoutDuplicates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, constituentsCSV)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	symbols := provider.Symbols(context.Background(), true)

	// RELIANCE and DMART are already on the focus list; only JUBLFOOD is new
	assert.Len(t, symbols, len(FocusStocks())+1)
	assert.Equal(t, "JUBLFOOD", symbols[len(symbols)-1])

	seen := make(map[string]int)
	for _, s := range symbols {
		seen[s]++
	}
	assert.Equal(t, 1, seen["RELIANCE"])
}

func TestSymbolsFallsBackToFocusListOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	symbols := provider.Symbols(context.Background(), true)

	assert.Equal(t, FocusStocks(), symbols)
}

func TestSymbolsWithoutBroaden(t *testing.T) {
	provider := newTestProvider("http://localhost:1")
	assert.Equal(t, FocusStocks(), provider.Symbols(context.Background(), false))
}

func TestParseConstituentsCSV(t *testing.T) {
	t.Run("missing symbol column", func(t *testing.T) {
		_, err := parseConstituentsCSV(strings.NewReader("Company Name,Industry\nFoo,Bar"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Symbol column")
	})

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		symbols, err := parseConstituentsCSV(strings.NewReader("Symbol\n reliance \nTCS\n\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"RELIANCE", "TCS"}, symbols)
	})
}
