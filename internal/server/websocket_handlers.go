package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/MeKo-Tech/cutout/internal/decompose"
	"github.com/MeKo-Tech/cutout/internal/geometry"
	"github.com/MeKo-Tech/cutout/internal/pieces"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketDecomposeResponse is a frame sent during a streaming
// decomposition. Progress frames carry the piece count reached so far;
// the completed frame carries the full result.
type WebSocketDecomposeResponse struct {
	Type      string                 `json:"type"`
	Status    string                 `json:"status"` // "processing", "completed", "error"
	Achieved  int                    `json:"achieved,omitempty"`
	Target    int                    `json:"target,omitempty"`
	Degraded  bool                   `json:"degraded,omitempty"`
	Pieces    []pieces.PieceDocument `json:"pieces,omitempty"`
	Error     string                 `json:"error,omitempty"`
	ErrorType string                 `json:"error_type,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// decomposeWebSocketHandler handles WebSocket connections that stream
// decomposition progress split by split.
func (s *Server) decomposeWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	s.handleWebSocketConnection(conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn) {
	// Set read deadline to prevent hanging connections
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Send ping messages to keep connection alive
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(conn, data)
		}
	}
}

// handleWebSocketMessage runs one streamed decomposition request.
func (s *Server) handleWebSocketMessage(conn *websocket.Conn, data []byte) {
	var req DecomposeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}
	if len(req.Polygon) < 3 {
		s.sendWebSocketError(conn, "invalid_request", "Polygon needs at least 3 vertices")
		return
	}
	if req.Pieces < 1 {
		s.sendWebSocketError(conn, "invalid_request", "Piece count must be at least 1")
		return
	}

	// Generate a request ID for tracking
	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)

	s.sendWebSocketResponse(conn, WebSocketDecomposeResponse{
		Type:      "decompose_response",
		Status:    "processing",
		Achieved:  1,
		Target:    req.Pieces,
		RequestID: requestID,
	})

	silhouette := make([]geometry.Point, len(req.Polygon))
	for i, v := range req.Polygon {
		silhouette[i] = geometry.Point{X: v[0], Y: v[1]}
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	start := time.Now()
	res := decompose.DecomposeWithProgress(silhouette, req.Pieces, rng, func(achieved int) {
		s.sendWebSocketResponse(conn, WebSocketDecomposeResponse{
			Type:      "decompose_response",
			Status:    "processing",
			Achieved:  achieved,
			Target:    req.Pieces,
			RequestID: requestID,
		})
	})
	assembled := pieces.Assemble(res.Polygons, rng)
	decomposeProcessingDuration.Observe(time.Since(start).Seconds())
	pieceCount.Observe(float64(res.Achieved))

	docs := make([]pieces.PieceDocument, 0, len(assembled))
	for _, p := range assembled {
		docs = append(docs, pieces.NewPieceDocument(p))
	}

	s.sendWebSocketResponse(conn, WebSocketDecomposeResponse{
		Type:      "decompose_response",
		Status:    "completed",
		Achieved:  res.Achieved,
		Target:    req.Pieces,
		Degraded:  res.Degraded,
		Pieces:    docs,
		RequestID: requestID,
	})
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketDecomposeResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, errorType, message string) {
	response := WebSocketDecomposeResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	}

	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket error response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket error message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
