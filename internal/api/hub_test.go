package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/contracts"
)

// envelope mirrors Message with the payload left raw for per-type decoding
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func startHub(t *testing.T, store *Store) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()

	hub := NewHub(store, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)

	return hub, srv, cancel
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()

	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(payload, &env))
	return env
}

func TestHubSendsSnapshotOnConnect(t *testing.T) {
	store := NewStore(0, testLogger())
	store.Set(sampleResult("RELIANCE", "TCS"))

	_, srv, cancel := startHub(t, store)
	defer cancel()

	conn := dial(t, srv)

	env := readEnvelope(t, conn)
	assert.Equal(t, MessageSnapshot, env.Type)

	var result contracts.RankedResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "2025-08-22", result.Session.DateKey())
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "RELIANCE", result.Entries[0].Quote.Symbol)
}

func TestHubBroadcastsToAllSubscribers(t *testing.T) {
	store := NewStore(0, testLogger())
	store.Set(sampleResult("RELIANCE"))

	hub, srv, cancel := startHub(t, store)
	defer cancel()

	// Reading the connect snapshot proves each client is registered
	// before the broadcast goes out
	first := dial(t, srv)
	readEnvelope(t, first)
	second := dial(t, srv)
	readEnvelope(t, second)

	hub.BroadcastResult(sampleResult("TCS", "INFY"))

	for _, conn := range []*websocket.Conn{first, second} {
		env := readEnvelope(t, conn)
		assert.Equal(t, MessageRanking, env.Type)

		var result contracts.RankedResult
		require.NoError(t, json.Unmarshal(env.Data, &result))
		require.Len(t, result.Entries, 2)
		assert.Equal(t, "TCS", result.Entries[0].Quote.Symbol)
	}
}

func TestHubBroadcastsLiveQuotes(t *testing.T) {
	store := NewStore(0, testLogger())
	store.Set(sampleResult("RELIANCE"))

	hub, srv, cancel := startHub(t, store)
	defer cancel()

	conn := dial(t, srv)
	readEnvelope(t, conn)

	hub.BroadcastLive(map[string]contracts.SymbolQuote{
		"RELIANCE": {Symbol: "RELIANCE", LastPrice: 2875.5, Volume: 4_200_000},
	})

	env := readEnvelope(t, conn)
	assert.Equal(t, MessageLive, env.Type)

	var quotes map[string]contracts.SymbolQuote
	require.NoError(t, json.Unmarshal(env.Data, &quotes))
	require.Contains(t, quotes, "RELIANCE")
	assert.Equal(t, 2875.5, quotes["RELIANCE"].LastPrice)
}

func TestHubShutdownClosesClients(t *testing.T) {
	store := NewStore(0, testLogger())
	store.Set(sampleResult("RELIANCE"))

	_, srv, cancel := startHub(t, store)

	conn := dial(t, srv)
	readEnvelope(t, conn)

	cancel()

	// The hub closes every send channel on shutdown, which makes the
	// write pump send a close frame and drop the connection
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}
