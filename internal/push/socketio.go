package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Engine.IO v4 packet types
const (
	engineOpen    = '0'
	engineClose   = '1'
	enginePing    = '2'
	enginePong    = '3'
	engineMessage = '4'
)

// Socket.IO v5 packet types, carried inside Engine.IO messages
const (
	socketConnect      = '0'
	socketDisconnect   = '1'
	socketEvent        = '2'
	socketConnectError = '4'
)

const (
	defaultPingInterval = 25 * time.Second
	defaultPingTimeout  = 20 * time.Second
)

var errMalformedPacket = errors.New("malformed socket.io packet")

// handshake is the payload of the Engine.IO open packet
type handshake struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
}

// readDeadline is how long the connection may stay silent before the
// server is considered gone
func (h handshake) readDeadline() time.Duration {
	interval := time.Duration(h.PingInterval) * time.Millisecond
	if interval <= 0 {
		interval = defaultPingInterval
	}
	timeout := time.Duration(h.PingTimeout) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	return interval + timeout
}

func parseHandshake(frame []byte) (handshake, error) {
	var h handshake
	if len(frame) == 0 || frame[0] != engineOpen {
		return h, fmt.Errorf("expected engine.io open packet, got %q", frame)
	}
	if err := json.Unmarshal(frame[1:], &h); err != nil {
		return h, fmt.Errorf("invalid engine.io open packet: %w", err)
	}
	return h, nil
}

// socketPacket is a decoded Socket.IO packet
type socketPacket struct {
	kind      byte
	namespace string
	data      []byte
}

// parseSocketPacket decodes the Socket.IO packet that follows the
// Engine.IO message type, e.g. `2/ns,["update",{...}]`
func parseSocketPacket(payload []byte) (socketPacket, error) {
	if len(payload) == 0 {
		return socketPacket{}, errMalformedPacket
	}

	p := socketPacket{kind: payload[0], namespace: "/"}
	rest := string(payload[1:])

	if strings.HasPrefix(rest, "/") {
		ns, remainder, found := strings.Cut(rest, ",")
		p.namespace = ns
		rest = remainder
		if !found {
			rest = ""
		}
	}

	// Drop the acknowledgement id
	rest = strings.TrimLeft(rest, "0123456789")

	p.data = []byte(rest)
	return p, nil
}

// decodeEvent splits an event packet's data into its name and first argument
func decodeEvent(data []byte) (string, json.RawMessage, error) {
	var args []json.RawMessage
	if err := json.Unmarshal(data, &args); err != nil {
		return "", nil, fmt.Errorf("invalid socket.io event: %w", err)
	}
	if len(args) == 0 {
		return "", nil, errMalformedPacket
	}

	var name string
	if err := json.Unmarshal(args[0], &name); err != nil {
		return "", nil, fmt.Errorf("invalid socket.io event name: %w", err)
	}
	if len(args) < 2 {
		return name, nil, nil
	}
	return name, args[1], nil
}

func connectPacket(namespace string) string {
	return string([]byte{engineMessage, socketConnect}) + namespaceField(namespace)
}

func disconnectPacket(namespace string) string {
	return string([]byte{engineMessage, socketDisconnect}) + namespaceField(namespace)
}

func namespaceField(namespace string) string {
	if namespace == "" || namespace == "/" {
		return ""
	}
	return namespace + ","
}
