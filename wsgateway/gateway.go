package wsgateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vigil-ac/vigil"
)

const (
	writeWait = 10 * time.Second
)

// Gateway binds the protocol engine to WebSocket connections. It owns the
// upgrade, the per-connection read pump, and the mapping between engine
// close codes and WebSocket close frames.
//
// Each connection gets one read goroutine that delivers messages to the
// engine synchronously, which is what gives the engine its serial-per-
// connection ordering guarantee.
type Gateway struct {
	engine    *vigil.Engine
	log       *zap.Logger
	readLimit int64
	upgrader  websocket.Upgrader
}

// New creates a Gateway over the given engine. readLimit caps inbound frame
// size at the transport; the engine applies its own message-size check on
// top. A nil logger means no logging.
func New(engine *vigil.Engine, logger *zap.Logger, readLimit int64) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		engine:    engine,
		log:       logger,
		readLimit: readLimit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The game extension does not send a browser Origin header;
			// origin policy is the deployment proxy's concern.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}

	if g.readLimit > 0 {
		ws.SetReadLimit(g.readLimit)
	}

	id := uuid.NewString()
	conn := &wsTransport{ws: ws, remote: r.RemoteAddr}

	g.log.Info("connection open",
		zap.String("session_id", id),
		zap.String("remote_addr", r.RemoteAddr))

	ctx := r.Context()
	if err := g.engine.Open(ctx, id, conn); err != nil {
		g.log.Info("connection refused",
			zap.String("session_id", id), zap.Error(err))
		return
	}

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.ClosePolicyViolation) {
				g.log.Info("connection read error",
					zap.String("session_id", id), zap.Error(err))
			}
			g.engine.Disconnect(ctx, id)
			conn.Terminate()
			return
		}
		// Returned errors are terminal: the engine already closed the
		// transport, so the next ReadMessage fails and the loop exits.
		_ = g.engine.Receive(ctx, id, data)
	}
}

// wsTransport adapts one gorilla websocket connection to vigil.Transport.
// The engine sends from the read goroutine and from the handshake deadline
// timer, so writes are serialized with a mutex.
type wsTransport struct {
	mu     sync.Mutex
	ws     *websocket.Conn
	remote string
}

func (t *wsTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return t.ws.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close(code int, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	msg := websocket.FormatCloseMessage(code, reason)
	_ = t.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := t.ws.WriteMessage(websocket.CloseMessage, msg); err != nil {
		return err
	}
	return t.ws.Close()
}

func (t *wsTransport) Terminate() {
	_ = t.ws.Close()
}

func (t *wsTransport) RemoteAddr() string {
	return t.remote
}
