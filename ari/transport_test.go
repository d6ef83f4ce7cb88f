package ari_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aribridge/ari"
	"aribridge/ari/aritest"
)

// fakeAsterisk answers every RESTRequest with 200 and pushes one binary
// frame first, which the transport must skip.
func fakeAsterisk() *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("app") == "" {
			http.Error(w, "missing app", http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0xde, 0xad})
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req aritest.SentRequest
			if err := json.Unmarshal(data, &req); err != nil || req.Type != ari.TypeRESTRequest {
				continue
			}
			reply := aritest.Response(req, 200, "OK", map[string]string{"id": "b1"})
			if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ari/events?" + query
}

func TestWebSocketTransportRoundTrip(t *testing.T) {
	srv := fakeAsterisk()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := ari.DialWebSocket(ctx, wsURL(srv, "app=test"), nil, quietLogger())
	require.NoError(t, err)

	c := ari.NewClient(tr, ari.WithLogger(quietLogger()))
	done := make(chan error, 1)
	runCtx, stop := context.WithCancel(context.Background())
	go func() { done <- c.Run(runCtx) }()

	b, err := ari.NewBridges(c).Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)

	stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.NoError(t, c.Close())
}

func TestDialWebSocketRejected(t *testing.T) {
	srv := fakeAsterisk()
	defer srv.Close()

	_, err := ari.DialWebSocket(context.Background(), wsURL(srv, ""), nil, quietLogger())
	var te *ari.TransportError
	require.True(t, errors.As(err, &te))
	assert.Contains(t, err.Error(), "400")
}
