package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/colonyops/repodoc/internal/core/analysis"
)

// StatusMessage is one update pushed on the legacy status socket.
type StatusMessage struct {
	Status        analysis.Status        `json:"status"`
	Progress      string                 `json:"progress,omitempty"`
	Documentation string                 `json:"documentation,omitempty"`
	Architecture  *analysis.Architecture `json:"architecture,omitempty"`
	RepoName      string                 `json:"repo_name,omitempty"`
	Error         string                 `json:"error,omitempty"`
}

// StatusURL returns the websocket URL that streams status for taskID,
// derived from the base URL (http -> ws, https -> wss).
func (c *Client) StatusURL(taskID string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/ws/status/" + url.PathEscape(taskID)
	return u.String(), nil
}

// StatusStream is an open status socket for one task.
type StatusStream struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	stop      func() bool
}

// DialStatus opens the status socket for taskID. The handshake is bounded by
// the client timeout; the stream itself lives until ctx is cancelled or
// Close is called.
func (c *Client) DialStatus(ctx context.Context, taskID string) (*StatusStream, error) {
	wsURL, err := c.StatusURL(taskID)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.timeout,
	}

	header := http.Header{}
	header.Set("X-Request-ID", c.requestID())

	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial status socket: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial status socket: %w", err)
	}

	c.log.Debug().Ctx(ctx).Str("url", wsURL).Msg("status socket connected")

	s := &StatusStream{conn: conn}
	s.stop = context.AfterFunc(ctx, func() { _ = s.closeConn() })
	return s, nil
}

// Next blocks until the next status message arrives.
func (s *StatusStream) Next() (StatusMessage, error) {
	var msg StatusMessage
	if err := s.conn.ReadJSON(&msg); err != nil {
		return StatusMessage{}, err
	}
	return msg, nil
}

// Close sends a close frame and releases the connection. Safe to call twice.
func (s *StatusStream) Close() error {
	if s.stop != nil {
		s.stop()
	}
	return s.closeConn()
}

func (s *StatusStream) closeConn() error {
	var err error
	s.closeOnce.Do(func() {
		_ = s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = s.conn.Close()
	})
	return err
}
