package room

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind tags the payload carried by an Event.
type Kind string

const (
	KindMessage Kind = "message"
	KindStroke  Kind = "stroke"
)

// A chat line in a room transcript
type Message struct {
	ID        string `json:"id" validate:"max=128"`
	Username  string `json:"username" validate:"required,max=64"`
	Content   string `json:"content" validate:"required,max=4000"`
	Timestamp int64  `json:"timestamp" validate:"gte=0"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// A freehand path drawn on the shared canvas
type Stroke struct {
	ID     string  `json:"id,omitempty" validate:"max=128"`
	Tool   string  `json:"tool" validate:"required,max=32"`
	Color  string  `json:"color" validate:"required,max=32"`
	Size   float64 `json:"size" validate:"gt=0,lte=512"`
	Points []Point `json:"points" validate:"required,min=1,max=20000"`
}

// Event is one entry of a room log. Exactly one of Message or Stroke is set,
// matching Kind. Events are never mutated after they are appended.
type Event struct {
	Kind    Kind
	Message *Message
	Stroke  *Stroke
}

func NewMessageEvent(m Message) Event { return Event{Kind: KindMessage, Message: &m} }

func NewStrokeEvent(s Stroke) Event { return Event{Kind: KindStroke, Stroke: &s} }

// ID returns the explicit identifier of the event, or "" when it has none.
func (e Event) ID() string {
	switch e.Kind {
	case KindMessage:
		if e.Message != nil {
			return e.Message.ID
		}
	case KindStroke:
		if e.Stroke != nil {
			return e.Stroke.ID
		}
	}
	return ""
}

// Validator checks event payloads before they reach a room log.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Normalize trims message content and returns the event ready for
// validation. The input event is left untouched.
func Normalize(e Event) Event {
	if e.Kind == KindMessage && e.Message != nil {
		m := *e.Message
		m.Content = strings.TrimSpace(m.Content)
		m.Username = strings.TrimSpace(m.Username)
		return NewMessageEvent(m)
	}
	return e
}

func (v *Validator) Validate(e Event) error {
	switch e.Kind {
	case KindMessage:
		if e.Message == nil {
			return fmt.Errorf("%w: message payload missing", ErrInvalidEvent)
		}
		if strings.TrimSpace(e.Message.Content) == "" {
			return fmt.Errorf("%w: empty message content", ErrInvalidEvent)
		}
		if err := v.v.Struct(e.Message); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
	case KindStroke:
		if e.Stroke == nil {
			return fmt.Errorf("%w: stroke payload missing", ErrInvalidEvent)
		}
		if err := v.v.Struct(e.Stroke); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		for i, p := range e.Stroke.Points {
			if !finite(p.X) || !finite(p.Y) {
				return fmt.Errorf("%w: point %d is not finite", ErrInvalidEvent, i)
			}
		}
		if !finite(e.Stroke.Size) {
			return fmt.Errorf("%w: stroke size is not finite", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
