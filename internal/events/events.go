// Package events publishes domain events to an optional message
// broker. Publication is fire-and-forget: the request that produced
// the event never waits on, or fails because of, the broker.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Channel names for the events the backend emits.
const (
	ChannelNoteCreated     = "notes.created"
	ChannelFeedbackCreated = "feedback.created"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// NoteCreated is emitted whenever a note is created, including notes
// produced by transcription uploads.
type NoteCreated struct {
	NoteID     int       `json:"note_id"`
	UserID     int       `json:"user_id"`
	Title      string    `json:"title"`
	FromUpload bool      `json:"from_upload"`
	CreatedAt  time.Time `json:"created_at"`
}

// FeedbackCreated is emitted whenever transcription feedback is stored.
type FeedbackCreated struct {
	FeedbackID   int       `json:"feedback_id"`
	NoteID       int       `json:"note_id"`
	UserID       int       `json:"user_id"`
	FeedbackType string    `json:"feedback_type"`
	Accuracy     float64   `json:"accuracy"`
	CreatedAt    time.Time `json:"created_at"`
}

// Publisher wraps a backend with typed helpers for the app's events.
type Publisher struct {
	backend Backend
}

// NewPublisher constructs a Publisher for the provided backend.
func NewPublisher(backend Backend) *Publisher {
	return &Publisher{backend: backend}
}

// PublishNoteCreated emits a NoteCreated event.
func (p *Publisher) PublishNoteCreated(ctx context.Context, event NoteCreated) (string, error) {
	return p.publishJSON(ctx, ChannelNoteCreated, event)
}

// PublishFeedbackCreated emits a FeedbackCreated event.
func (p *Publisher) PublishFeedbackCreated(ctx context.Context, event FeedbackCreated) (string, error) {
	return p.publishJSON(ctx, ChannelFeedbackCreated, event)
}

func (p *Publisher) publishJSON(ctx context.Context, channel string, event any) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return p.backend.Publish(ctx, channel, data, map[string]string{
		"content-type": "application/json",
	})
}

// Subscribe consumes messages from the named channel.
func (p *Publisher) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return p.backend.Subscribe(ctx, channel, handler)
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	return p.backend.Close()
}
