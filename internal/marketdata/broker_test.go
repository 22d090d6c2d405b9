package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/external/kite"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/config"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/httputil"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

func newBrokerProvider(baseURL, accessToken string) *BrokerProvider {
	cfg := &config.Config{LogLevel: "error", LogFormat: "json", Env: "test"}
	log := logger.New(cfg)

	client := kite.NewClient(config.KiteConfig{
		APIKey:            "key",
		AccessToken:       accessToken,
		BaseURL:           baseURL,
		Exchange:          "NSE",
		RequestsPerMinute: 6000,
		Timeout:           5 * time.Second,
	}, httputil.New(cfg, log).DisableRetry(), log)

	return NewBrokerProvider(client, log)
}

const instrumentsCSV = `instrument_token,exchange_token,tradingsymbol,name,last_price,expiry,strike,tick_size,lot_size,instrument_type,segment,exchange
738561,2885,RELIANCE,RELIANCE INDUSTRIES,0,,0,0.05,1,EQ,NSE,NSE
895745,3499,TATASTEEL,TATA STEEL,0,,0,0.05,1,EQ,NSE,NSE
2953217,11536,TCS,TATA CONSULTANCY,0,,0,0.05,1,EQ,NSE,NSE`

func brokerHandler(t *testing.T, candlesByToken map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/instruments/NSE":
			fmt.Fprint(w, instrumentsCSV)
		case strings.HasPrefix(r.URL.Path, "/instruments/historical/"):
			parts := strings.Split(r.URL.Path, "/")
			token := parts[3]
			candles, ok := candlesByToken[token]
			if !ok {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"status":"error","message":"boom","error_type":"GeneralException"}`)
				return
			}
			fmt.Fprintf(w, `{"status":"success","data":{"candles":%s}}`, candles)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestBrokerFetchSessionQuotes(t *testing.T) {
	candles := map[string]string{
		// Previous session bar then the target session bar
		"738561": `[["2025-08-21T00:00:00+0530",1440.0,1460.0,1435.0,1452.0,4100000],
			["2025-08-22T00:00:00+0530",1450.5,1480.0,1445.0,1472.3,5200000]]`,
		// Only the target bar: previous close unknown, open becomes the reference
		"895745": `[["2025-08-22T00:00:00+0530",160.0,165.5,158.2,163.1,7800000]]`,
	}

	server := httptest.NewServer(brokerHandler(t, candles))
	defer server.Close()

	provider := newBrokerProvider(server.URL, "secret")
	quotes, prov, err := provider.FetchSessionQuotes(
		context.Background(),
		[]string{"RELIANCE", "TATASTEEL", "UNLISTED"},
		testSession(),
	)
	require.NoError(t, err)

	assert.Equal(t, "kite", prov.Source)
	assert.Equal(t, 3, prov.Requested)
	assert.Equal(t, 2, prov.Returned)
	assert.Equal(t, 1, prov.Failed)

	rel := quotes["RELIANCE"]
	assert.Equal(t, 1472.3, rel.LastPrice)
	assert.Equal(t, 1452.0, rel.PrevClose)
	assert.Equal(t, 1452.0, rel.ReferencePrice())
	assert.Equal(t, int64(5200000), rel.Volume)

	tata := quotes["TATASTEEL"]
	assert.Equal(t, 0.0, tata.PrevClose)
	assert.Equal(t, 160.0, tata.ReferencePrice(), "open is the reference without a previous close")

	_, ok := quotes["UNLISTED"]
	assert.False(t, ok, "unknown symbols never appear in the result")
}

func TestBrokerToleratesPerSymbolFailures(t *testing.T) {
	candles := map[string]string{
		"738561": `[["2025-08-22T00:00:00+0530",1450.5,1480.0,1445.0,1472.3,5200000]]`,
		// TCS (2953217) missing: its historical call returns 500
	}

	server := httptest.NewServer(brokerHandler(t, candles))
	defer server.Close()

	provider := newBrokerProvider(server.URL, "secret")
	quotes, prov, err := provider.FetchSessionQuotes(
		context.Background(),
		[]string{"RELIANCE", "TCS"},
		testSession(),
	)
	require.NoError(t, err, "one failing symbol must not fail the call")

	assert.Len(t, quotes, 1)
	assert.Equal(t, 1, prov.Returned)
	assert.Equal(t, 1, prov.Failed)
}

func TestBrokerNoSession(t *testing.T) {
	provider := newBrokerProvider("http://localhost:1", "")

	_, prov, err := provider.FetchSessionQuotes(context.Background(), []string{"RELIANCE"}, testSession())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoActiveConnection))
	assert.Equal(t, 1, prov.Requested)
	assert.Equal(t, 0, prov.Returned)
}

func TestBrokerAuthErrorAbortsCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"status":"error","message":"Token is invalid or has expired.","error_type":"TokenException"}`)
	}))
	defer server.Close()

	provider := newBrokerProvider(server.URL, "stale-token")
	_, _, err := provider.FetchSessionQuotes(context.Background(), []string{"RELIANCE"}, testSession())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthenticationFailed))
}

func TestBrokerDropsNegativeVolume(t *testing.T) {
	candles := map[string]string{
		"738561": `[["2025-08-22T00:00:00+0530",1450.5,1480.0,1445.0,1472.3,-100]]`,
	}

	server := httptest.NewServer(brokerHandler(t, candles))
	defer server.Close()

	provider := newBrokerProvider(server.URL, "secret")
	quotes, prov, err := provider.FetchSessionQuotes(context.Background(), []string{"RELIANCE"}, testSession())
	require.NoError(t, err)

	assert.Empty(t, quotes, "negative volume rows are dropped, not zeroed")
	assert.Equal(t, 1, prov.Failed)
}

func TestQuoteFromCandles(t *testing.T) {
	day := func(d int, close float64) kite.Candle {
		return kite.Candle{
			Date:  time.Date(2025, time.August, d, 0, 0, 0, 0, time.FixedZone("IST", 5*3600+30*60)),
			Open:  close - 1, High: close + 1, Low: close - 2, Close: close, Volume: 1000,
		}
	}

	session := testSession()

	t.Run("exact date with previous close", func(t *testing.T) {
		quote, ok := quoteFromCandles("X", []kite.Candle{day(20, 99), day(21, 100), day(22, 101)}, session)
		require.True(t, ok)
		assert.Equal(t, 101.0, quote.LastPrice)
		assert.Equal(t, 100.0, quote.PrevClose)
	})

	t.Run("session date absent", func(t *testing.T) {
		_, ok := quoteFromCandles("X", []kite.Candle{day(20, 99), day(21, 100)}, session)
		assert.False(t, ok)
	})

	t.Run("no candles", func(t *testing.T) {
		_, ok := quoteFromCandles("X", nil, session)
		assert.False(t, ok)
	})
}
