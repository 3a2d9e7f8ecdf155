// Package realtime speaks the OpenAI realtime speech protocol: event types,
// a websocket transport and a compressed capture/replay format.
package realtime

import (
	"encoding/json"
	"errors"
)

// Event type names used on the wire.
const (
	TypeSessionUpdate          = "session.update"
	TypeConversationItemCreate = "conversation.item.create"
	TypeResponseCreate         = "response.create"

	TypeError              = "error"
	TypeSessionCreated     = "session.created"
	TypeSessionUpdated     = "session.updated"
	TypeResponseCreated    = "response.created"
	TypeResponseAudioDelta = "response.audio.delta"
	TypeResponseAudioDone  = "response.audio.done"
	TypeResponseDone       = "response.done"
)

// ErrMissingDelta is returned when an audio delta event carries no delta field.
var ErrMissingDelta = errors.New("audio delta event has no delta")

// Client events, sent from client to server.

// ClientEvent is the base structure for all client events.
type ClientEvent struct {
	EventID string `json:"event_id,omitempty"`
	Type    string `json:"type"`
}

// SessionUpdateEvent updates session configuration.
type SessionUpdateEvent struct {
	ClientEvent
	Session SessionConfig `json:"session"`
}

// SessionConfig is the session configuration sent in session.update.
type SessionConfig struct {
	Voice         string               `json:"voice"`
	Speed         float64              `json:"speed,omitempty"`
	Instructions  string               `json:"instructions"`
	TurnDetection *TurnDetectionConfig `json:"turn_detection"`
	Modalities    []string             `json:"modalities"`
	Temperature   float64              `json:"temperature"`
}

// TurnDetectionConfig selects server-side turn detection.
type TurnDetectionConfig struct {
	Type string `json:"type"`
}

// ConversationItemCreateEvent adds an item to the conversation.
type ConversationItemCreateEvent struct {
	ClientEvent
	Item ConversationItem `json:"item"`
}

// ConversationItem represents an item in the conversation.
type ConversationItem struct {
	Type    string                `json:"type"`
	Role    string                `json:"role,omitempty"`
	Content []ConversationContent `json:"content,omitempty"`
}

// ConversationContent represents content within a conversation item.
type ConversationContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ResponseCreateEvent triggers a response from the model.
type ResponseCreateEvent struct {
	ClientEvent
}

// NewSessionUpdate builds the session.update event for a synthesis request.
func NewSessionUpdate(voice string, speed float64, instructions string) SessionUpdateEvent {
	return SessionUpdateEvent{
		ClientEvent: ClientEvent{Type: TypeSessionUpdate},
		Session: SessionConfig{
			Voice:         voice,
			Speed:         speed,
			Instructions:  instructions,
			TurnDetection: &TurnDetectionConfig{Type: "server_vad"},
			Modalities:    []string{"text", "audio"},
			Temperature:   DefaultTemperature,
		},
	}
}

// NewUserText builds the conversation.item.create event carrying user text.
func NewUserText(text string) ConversationItemCreateEvent {
	return ConversationItemCreateEvent{
		ClientEvent: ClientEvent{Type: TypeConversationItemCreate},
		Item: ConversationItem{
			Type: "message",
			Role: "user",
			Content: []ConversationContent{
				{Type: "input_text", Text: text},
			},
		},
	}
}

// NewResponseCreate builds the response.create trigger.
func NewResponseCreate() ResponseCreateEvent {
	return ResponseCreateEvent{ClientEvent: ClientEvent{Type: TypeResponseCreate}}
}

// Server events, received from server.

// ServerEvent is the base structure for all server events.
type ServerEvent struct {
	EventID string `json:"event_id,omitempty"`
	Type    string `json:"type"`
}

// ErrorEvent indicates an error occurred.
type ErrorEvent struct {
	ServerEvent
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
}

// SessionEvent covers session.created and session.updated.
type SessionEvent struct {
	ServerEvent
	Session struct {
		ID    string `json:"id"`
		Model string `json:"model"`
		Voice string `json:"voice"`
	} `json:"session"`
}

// ResponseAudioDeltaEvent provides streaming audio.
type ResponseAudioDeltaEvent struct {
	ServerEvent
	ResponseID string  `json:"response_id,omitempty"`
	ItemID     string  `json:"item_id,omitempty"`
	Delta      *string `json:"delta"` // base64 PCM16
}

// ResponseAudioDoneEvent indicates audio streaming completed.
type ResponseAudioDoneEvent struct {
	ServerEvent
	ResponseID string `json:"response_id,omitempty"`
	ItemID     string `json:"item_id,omitempty"`
}

// ResponseDoneEvent indicates a response completed.
type ResponseDoneEvent struct {
	ServerEvent
	Response struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"response"`
}

// ParseServerEvent parses a raw JSON message into the appropriate event type.
// Unknown types come back as *ServerEvent.
func ParseServerEvent(data []byte) (interface{}, error) {
	var base ServerEvent
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, err
	}

	switch base.Type {
	case TypeError:
		var e ErrorEvent
		return &e, json.Unmarshal(data, &e)
	case TypeSessionCreated, TypeSessionUpdated:
		var e SessionEvent
		return &e, json.Unmarshal(data, &e)
	case TypeResponseAudioDelta:
		var e ResponseAudioDeltaEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		if e.Delta == nil {
			return &e, ErrMissingDelta
		}
		return &e, nil
	case TypeResponseAudioDone:
		var e ResponseAudioDoneEvent
		return &e, json.Unmarshal(data, &e)
	case TypeResponseDone:
		var e ResponseDoneEvent
		return &e, json.Unmarshal(data, &e)
	default:
		return &base, nil
	}
}
