// Package ws provides a WebSocket client for the dayplan event stream.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/coder/websocket"

	wsprotocol "github.com/dohr-michael/dayplan/internal/gateway/ws"
)

// Client is a WebSocket client for the gateway event stream.
type Client struct {
	conn   *websocket.Conn
	reqSeq uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// StreamURL builds the event stream URL for a gateway address such as
// "127.0.0.1:18420" or "http://host:port". An empty studentID follows
// every student.
func StreamURL(addr, studentID string) string {
	switch {
	case strings.HasPrefix(addr, "https://"):
		addr = "wss://" + strings.TrimPrefix(addr, "https://")
	case strings.HasPrefix(addr, "http://"):
		addr = "ws://" + strings.TrimPrefix(addr, "http://")
	case !strings.HasPrefix(addr, "ws://") && !strings.HasPrefix(addr, "wss://"):
		addr = "ws://" + addr
	}
	u := strings.TrimSuffix(addr, "/") + "/api/ws"
	if studentID != "" {
		u += "?student_id=" + url.QueryEscape(studentID)
	}
	return u
}

// Dial connects to the gateway WebSocket endpoint.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}

	clientCtx, cancel := context.WithCancel(ctx)

	return &Client{
		conn:   conn,
		ctx:    clientCtx,
		cancel: cancel,
	}, nil
}

// Request sends a request frame and returns its id. The response arrives
// through ReadFrame, interleaved with events.
func (c *Client) Request(method wsprotocol.Method, params any) (string, error) {
	seq := atomic.AddUint64(&c.reqSeq, 1)

	frame, err := wsprotocol.RequestFrame(fmt.Sprintf("req-%d", seq), method, params)
	if err != nil {
		return "", err
	}
	data, err := wsprotocol.Encode(frame)
	if err != nil {
		return "", err
	}
	if err := c.conn.Write(c.ctx, websocket.MessageText, data); err != nil {
		return "", err
	}
	return frame.ID, nil
}

// RequestHistory asks for the last limit events of the followed students.
func (c *Client) RequestHistory(limit int) (string, error) {
	return c.Request(wsprotocol.MethodHistory, wsprotocol.HistoryParams{Limit: limit})
}

// HistoryFrames decodes the event frames of a history response.
func HistoryFrames(res wsprotocol.Frame) ([]wsprotocol.Frame, error) {
	if res.OK == nil || !*res.OK {
		return nil, fmt.Errorf("history: %s", res.Error)
	}
	var frames []wsprotocol.Frame
	if err := json.Unmarshal(res.Payload, &frames); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return frames, nil
}

// ReadFrame reads the next frame from the connection.
func (c *Client) ReadFrame() (wsprotocol.Frame, error) {
	_, data, err := c.conn.Read(c.ctx)
	if err != nil {
		return wsprotocol.Frame{}, err
	}
	return wsprotocol.Decode(data)
}

// Close gracefully closes the connection.
func (c *Client) Close() error {
	c.cancel()
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}
