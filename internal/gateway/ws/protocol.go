// Package ws streams bus events to WebSocket clients.
//
// Every message is one JSON Frame. The server pushes "event" frames for the
// students a client follows; clients send "req" frames (ping, history) and
// get a "res" frame carrying the same id.
package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dohr-michael/dayplan/internal/events"
)

// FrameType represents the type of WebSocket frame.
type FrameType string

const (
	FrameTypeRequest  FrameType = "req"
	FrameTypeResponse FrameType = "res"
	FrameTypeEvent    FrameType = "event"
)

// Method represents a WebSocket request method.
type Method string

const (
	MethodPing    Method = "ping"
	MethodHistory Method = "history"
)

// Frame is the WebSocket protocol envelope.
type Frame struct {
	Type      FrameType       `json:"type"`
	ID        string          `json:"id,omitempty"`
	Method    string          `json:"method,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	OK        *bool           `json:"ok,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     string          `json:"error,omitempty"`
	Event     string          `json:"event,omitempty"`
	StudentID string          `json:"student_id,omitempty"`
	Source    string          `json:"source,omitempty"`
	Time      *time.Time      `json:"time,omitempty"`
}

// HistoryParams are the params of a history request.
type HistoryParams struct {
	Limit int `json:"limit"`
}

// Encode serializes a frame.
func Encode(f Frame) ([]byte, error) {
	return json.Marshal(f)
}

// Decode parses a frame and rejects unknown frame types.
func Decode(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, err
	}
	switch f.Type {
	case FrameTypeRequest, FrameTypeResponse, FrameTypeEvent:
		return f, nil
	default:
		return Frame{}, fmt.Errorf("unknown frame type %q", f.Type)
	}
}

// EventFrame wraps a bus event. The frame payload is the event payload.
func EventFrame(e events.Event) (Frame, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return Frame{}, err
	}
	ts := e.Timestamp
	return Frame{
		Type:      FrameTypeEvent,
		ID:        e.ID,
		Event:     string(e.Type),
		StudentID: e.StudentID,
		Source:    string(e.Source),
		Time:      &ts,
		Payload:   payload,
	}, nil
}

// RequestFrame builds a client request. Nil params are omitted.
func RequestFrame(id string, method Method, params any) (Frame, error) {
	f := Frame{Type: FrameTypeRequest, ID: id, Method: string(method)}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return Frame{}, err
		}
		f.Params = raw
	}
	return f, nil
}

// ResultFrame answers request id successfully.
func ResultFrame(id string, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	ok := true
	return Frame{Type: FrameTypeResponse, ID: id, OK: &ok, Payload: data}, nil
}

// ErrorFrame answers request id with an error.
func ErrorFrame(id, msg string) Frame {
	ok := false
	return Frame{Type: FrameTypeResponse, ID: id, OK: &ok, Error: msg}
}
