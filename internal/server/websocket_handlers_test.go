package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestWebSocket(t *testing.T, server *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(server.decomposeWebSocketHandler))
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readResponse(t *testing.T, conn *websocket.Conn) WebSocketDecomposeResponse {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var resp WebSocketDecomposeResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func TestWebSocketDecompose_StreamsProgress(t *testing.T) {
	server := newTestServer(t)
	conn := dialTestWebSocket(t, server)

	req := DecomposeRequest{
		Polygon: [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Pieces:  4,
		Seed:    42,
	}
	require.NoError(t, conn.WriteJSON(req))

	var responses []WebSocketDecomposeResponse
	for {
		resp := readResponse(t, conn)
		responses = append(responses, resp)
		if resp.Status != "processing" {
			break
		}
	}

	final := responses[len(responses)-1]
	require.Equal(t, "completed", final.Status)
	assert.Equal(t, 4, final.Achieved)
	assert.False(t, final.Degraded)
	assert.Len(t, final.Pieces, 4)
	assert.NotEmpty(t, final.RequestID)

	// The processing frames report a strictly growing piece count.
	var counts []int
	for _, r := range responses[:len(responses)-1] {
		require.Equal(t, "processing", r.Status)
		counts = append(counts, r.Achieved)
	}
	require.NotEmpty(t, counts)
	for i := 1; i < len(counts); i++ {
		assert.Greater(t, counts[i], counts[i-1])
	}
}

func TestWebSocketDecompose_InvalidRequests(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name    string
		payload string
	}{
		{
			name:    "malformed json",
			payload: "{not json",
		},
		{
			name:    "too few vertices",
			payload: `{"polygon":[[0,0],[1,0]],"pieces":4}`,
		},
		{
			name:    "zero pieces",
			payload: `{"polygon":[[0,0],[1,0],[1,1]],"pieces":0}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := dialTestWebSocket(t, server)
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.payload)))

			resp := readResponse(t, conn)
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, "invalid_request", resp.ErrorType)
			assert.NotEmpty(t, resp.Error)
		})
	}
}
