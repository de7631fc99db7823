// internal/push/listener.go
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"kiosk-client/internal/config"
	"kiosk-client/internal/model"
)

// updateEvent carries kiosk messages on the push namespace
const updateEvent = "update"

// Printer is the print entry point used for push print requests
type Printer interface {
	PrintTicket(ctx context.Context, source model.PrintSource, payload string) model.PrintResult
}

// Listener keeps a Socket.IO connection open to the kiosk server and
// prints the tickets it pushes
type Listener struct {
	url              string
	namespace        string
	token            string
	printer          Printer
	reconnectDelay   time.Duration
	handshakeTimeout time.Duration
	dialer           *websocket.Dialer
	logger           *zap.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewListener creates a listener for the Socket.IO endpoint at url. It
// joins the namespace named in cfg.
func NewListener(url, token string, cfg *config.PushConfig, printer Printer, logger *zap.Logger) *Listener {
	delay := cfg.ReconnectDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	handshakeTimeout := cfg.HandshakeTimeout
	if handshakeTimeout <= 0 {
		handshakeTimeout = 10 * time.Second
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "/"
	}

	return &Listener{
		url:              url,
		namespace:        namespace,
		token:            token,
		printer:          printer,
		reconnectDelay:   delay,
		handshakeTimeout: handshakeTimeout,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		logger: logger.With(
			zap.String("component", "push_listener"),
			zap.String("url", url),
			zap.String("namespace", namespace),
		),
	}
}

// Start runs the connection loop until ctx is done or Stop is called
func (l *Listener) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done != nil {
		return
	}

	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})

	go l.run(ctx)
}

// Stop closes the connection and waits for the loop to exit
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		cancel, done := l.cancel, l.done
		l.mu.Unlock()

		if cancel == nil {
			return
		}
		cancel()
		<-done
		l.logger.Info("Push listener stopped")
	})
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.done)

	header := http.Header{}
	header.Set("X-App-Token", l.token)

	for {
		l.logger.Info("Connecting to push channel")

		conn, _, err := l.dialer.DialContext(ctx, l.url, header)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Warn("Push connection failed", zap.Error(err), zap.Duration("retry_in", l.reconnectDelay))
			if !l.wait(ctx) {
				return
			}
			continue
		}

		l.logger.Info("Push channel connected")
		l.handleConnection(ctx, conn)
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		l.logger.Warn("Push channel disconnected", zap.Duration("retry_in", l.reconnectDelay))
		if !l.wait(ctx) {
			return
		}
	}
}

// session serializes writes on one connection
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *session) send(packet string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, []byte(packet))
}

func (l *Listener) handleConnection(ctx context.Context, conn *websocket.Conn) {
	sess := &session{conn: conn}

	// Unblocks ReadMessage on shutdown
	stop := context.AfterFunc(ctx, func() {
		sess.send(disconnectPacket(l.namespace))
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	conn.SetReadDeadline(time.Now().Add(l.handshakeTimeout))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		if ctx.Err() == nil {
			l.logger.Warn("Push handshake failed", zap.Error(err))
		}
		return
	}
	hs, err := parseHandshake(frame)
	if err != nil {
		l.logger.Warn("Push handshake failed", zap.Error(err))
		return
	}
	deadline := hs.readDeadline()

	if err := sess.send(connectPacket(l.namespace)); err != nil {
		l.logger.Warn("Push namespace connect failed", zap.Error(err))
		return
	}

	for {
		conn.SetReadDeadline(time.Now().Add(deadline))
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				l.logger.Warn("Push read error", zap.Error(err))
			}
			return
		}
		if len(frame) == 0 {
			continue
		}

		switch frame[0] {
		case enginePing:
			frame[0] = enginePong
			if err := sess.send(string(frame)); err != nil {
				l.logger.Warn("Push pong failed", zap.Error(err))
				return
			}
		case engineClose:
			return
		case engineMessage:
			if !l.handlePacket(ctx, hs.SID, frame[1:]) {
				return
			}
		}
	}
}

// handlePacket processes one Socket.IO packet and reports whether the
// connection should stay open
func (l *Listener) handlePacket(ctx context.Context, sid string, payload []byte) bool {
	packet, err := parseSocketPacket(payload)
	if err != nil {
		l.logger.Warn("Invalid push packet", zap.Error(err))
		return true
	}
	if packet.namespace != l.namespace {
		return true
	}

	switch packet.kind {
	case socketConnect:
		l.logger.Info("Push namespace joined", zap.String("sid", sid))
	case socketConnectError:
		l.logger.Warn("Push namespace refused", zap.ByteString("reason", packet.data))
		return false
	case socketDisconnect:
		return false
	case socketEvent:
		name, data, err := decodeEvent(packet.data)
		if err != nil {
			l.logger.Warn("Invalid push event", zap.Error(err))
			return true
		}
		if name != updateEvent {
			l.logger.Debug("Ignoring push event", zap.String("event", name))
			return true
		}
		l.handleMessage(ctx, data)
	}
	return true
}

func (l *Listener) handleMessage(ctx context.Context, data []byte) {
	msg, err := ParseMessage(data)
	if err != nil {
		l.logger.Warn("Invalid push message", zap.Error(err))
		return
	}

	switch msg.Flag {
	case model.PushFlagPrint:
		// A ticket already accepted is printed even when shutdown starts
		result := l.printer.PrintTicket(context.WithoutCancel(ctx), model.PrintSourcePush, msg.Data)
		l.logger.Info("Push print handled",
			zap.Bool("success", result.Success),
			zap.String("message", result.Message),
		)
	default:
		l.logger.Debug("Ignoring push message", zap.String("flag", msg.Flag))
	}
}

// wait sleeps for the reconnect delay and reports whether to keep going
func (l *Listener) wait(ctx context.Context) bool {
	timer := time.NewTimer(l.reconnectDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// ParseMessage decodes a push message. The server may send the message
// object itself or the object encoded as a JSON string.
func ParseMessage(data []byte) (model.PushMessage, error) {
	var msg model.PushMessage
	if err := json.Unmarshal(data, &msg); err == nil {
		return msg, nil
	}

	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return msg, fmt.Errorf("failed to decode push message: %w", err)
	}
	if err := json.Unmarshal([]byte(encoded), &msg); err != nil {
		return msg, fmt.Errorf("failed to decode push message: %w", err)
	}
	return msg, nil
}
