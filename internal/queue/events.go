package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the domain stream
const (
	EventLessonCreated   = "lesson_created"
	EventLessonDeleted   = "lesson_deleted"
	EventAccountDeleted  = "account_deleted"
	EventPremiumUpgraded = "premium_upgraded"
	EventIndexDivergence = "index_divergence"
)

// Stream names
const (
	StreamDomain = "stream:wisdomvault"
)

// Event is one entry on the domain stream. Consumers live outside this
// service; nothing here reads the stream back.
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`

	LessonID string `json:"lesson_id,omitempty"`
	Email    string `json:"email,omitempty"`

	// Divergence events name the index left inconsistent and the step that failed.
	Index string `json:"index,omitempty"`
	Step  string `json:"step,omitempty"`
	Error string `json:"error,omitempty"`
}

func NewLessonCreatedEvent(lessonID, creatorEmail string) Event {
	return Event{
		Type:      EventLessonCreated,
		Timestamp: time.Now().Unix(),
		LessonID:  lessonID,
		Email:     creatorEmail,
	}
}

func NewLessonDeletedEvent(lessonID, creatorEmail string) Event {
	return Event{
		Type:      EventLessonDeleted,
		Timestamp: time.Now().Unix(),
		LessonID:  lessonID,
		Email:     creatorEmail,
	}
}

func NewAccountDeletedEvent(email string) Event {
	return Event{
		Type:      EventAccountDeleted,
		Timestamp: time.Now().Unix(),
		Email:     email,
	}
}

func NewPremiumUpgradedEvent(email string) Event {
	return Event{
		Type:      EventPremiumUpgraded,
		Timestamp: time.Now().Unix(),
		Email:     email,
	}
}

// NewIndexDivergenceEvent records a lesson row that differs between the two
// indexes after a failed compensation. An operator repairs it by copying the
// row from the public index.
func NewIndexDivergenceEvent(lessonID, index, step string, cause error) Event {
	e := Event{
		Type:      EventIndexDivergence,
		Timestamp: time.Now().Unix(),
		LessonID:  lessonID,
		Index:     index,
		Step:      step,
	}
	if cause != nil {
		e.Error = cause.Error()
	}
	return e
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e Event) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseEvent parses an Event from Redis stream message values.
func ParseEvent(values map[string]interface{}) (Event, error) {
	data, ok := values["data"].(string)
	if !ok {
		return Event{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
