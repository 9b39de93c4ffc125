package adapter

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket read/write deadlines, adapted from the client-facing hub
// pattern elsewhere in the retrieved pack: a dialed connection still needs
// pong-driven liveness detection even though here quakewatch is the client,
// not the server.
const (
	wsReadDeadline  = 60 * time.Second
	wsPingPeriod    = (wsReadDeadline * 9) / 10
	wsWriteDeadline = 10 * time.Second
)

// WebSocketSource dials an outbound WebSocket feed and satisfies
// StreamSource, translating close codes into the adapter's rate-limit
// vocabulary where they overlap (policy violation -> 429).
type WebSocketSource struct {
	conn     *websocket.Conn
	messages chan []byte
	codes    chan int
	done     chan struct{}
}

// DialWebSocketSource connects to url and starts the read pump
// immediately; Close stops it and releases the connection.
func DialWebSocketSource(url string) (*WebSocketSource, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	s := &WebSocketSource{
		conn:     conn,
		messages: make(chan []byte, streamInputHighWater),
		codes:    make(chan int, 4),
		done:     make(chan struct{}),
	}
	conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	go s.readPump()
	go s.pingPump()
	return s, nil
}

func (s *WebSocketSource) readPump() {
	defer close(s.messages)
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if ce, ok := err.(*websocket.CloseError); ok {
				select {
				case s.codes <- closeCodeToStatus(ce.Code):
				default:
				}
			} else {
				slog.Debug("adapter: websocket read error", "err", err)
			}
			return
		}
		select {
		case s.messages <- payload:
		case <-s.done:
			return
		}
	}
}

func (s *WebSocketSource) pingPump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// closeCodeToStatus folds WebSocket close codes into the source status
// vocabulary IsRateLimitCode understands; an unrecognized close code
// passes through unchanged.
func closeCodeToStatus(code int) int {
	if code == websocket.ClosePolicyViolation {
		return 429
	}
	return code
}

func (s *WebSocketSource) Messages() <-chan []byte { return s.messages }
func (s *WebSocketSource) Codes() <-chan int       { return s.codes }

func (s *WebSocketSource) Close() error {
	close(s.done)
	return s.conn.Close()
}
