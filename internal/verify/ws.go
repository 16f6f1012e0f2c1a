package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// wsFrame is the JSON frame shape the realtime channel speaks.
type wsFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// wsProber opens short-lived websocket connections against the
// target's realtime channel.
type wsProber struct {
	timeout time.Duration
}

func newWSProber(timeout time.Duration) *wsProber {
	return &wsProber{timeout: timeout}
}

// wsEndpoint rewrites an http(s) base URL to the ws(s) channel URL.
func wsEndpoint(target, path string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid target URL %s: %w", target, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		// already a websocket URL
	default:
		return "", fmt.Errorf("unsupported scheme %q in target URL", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String(), nil
}

// dial opens a connection with the probe timeout as handshake deadline.
func (p *wsProber) dial(ctx context.Context, endpoint string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: p.timeout}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// exchange sends one frame and waits for the first frame back, bounded
// by the probe timeout.
func (p *wsProber) exchange(ctx context.Context, endpoint string, send wsFrame) (*wsFrame, error) {
	conn, err := p.dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.WriteJSON(send); err != nil {
		return nil, fmt.Errorf("websocket send failed: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(p.timeout))
	var frame wsFrame
	if err := conn.ReadJSON(&frame); err != nil {
		return nil, fmt.Errorf("no frame received within %s: %w", p.timeout, err)
	}
	return &frame, nil
}

// awaitFrameType sends one frame and reads until a frame with one of
// the wanted types arrives, bounded overall by the probe timeout.
// Unrelated frames (broadcasts, presence events) are skipped.
func (p *wsProber) awaitFrameType(ctx context.Context, endpoint string, send wsFrame, wantTypes ...string) (*wsFrame, error) {
	conn, err := p.dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.WriteJSON(send); err != nil {
		return nil, fmt.Errorf("websocket send failed: %w", err)
	}

	deadline := time.Now().Add(p.timeout)
	conn.SetReadDeadline(deadline)
	for {
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return nil, fmt.Errorf("no %s frame within %s: %w", strings.Join(wantTypes, "/"), p.timeout, err)
		}
		for _, want := range wantTypes {
			if frame.Type == want {
				return &frame, nil
			}
		}
	}
}
