package models

import (
	"encoding/json"
	"fmt"
)

// EventType names a change notification.
type EventType string

const (
	EventConnected   EventType = "ws.connected"
	EventFileCreated EventType = "file.created"
	EventFileUpdated EventType = "file.updated"
	EventFileDeleted EventType = "file.deleted"
)

// ChangeEvent describes one committed record change. Created and updated
// events carry the full record; deleted events carry only the id.
type ChangeEvent struct {
	Type   EventType
	Record *Record
	ID     int64
}

// RecordCreated builds a file.created event.
func RecordCreated(r Record) ChangeEvent {
	return ChangeEvent{Type: EventFileCreated, Record: &r, ID: r.ID}
}

// RecordUpdated builds a file.updated event.
func RecordUpdated(r Record) ChangeEvent {
	return ChangeEvent{Type: EventFileUpdated, Record: &r, ID: r.ID}
}

// RecordDeleted builds a file.deleted event.
func RecordDeleted(id int64) ChangeEvent {
	return ChangeEvent{Type: EventFileDeleted, ID: id}
}

// recordPayload is the wire shape of a record inside an event
type recordPayload struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	Language string `json:"language"`
}

type deletedPayload struct {
	ID int64 `json:"id"`
}

type wireEvent struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MarshalJSON encodes the event as {"type": ..., "payload": ...}.
func (e ChangeEvent) MarshalJSON() ([]byte, error) {
	var payload interface{}
	switch e.Type {
	case EventFileCreated, EventFileUpdated:
		if e.Record == nil {
			return nil, fmt.Errorf("%s event without record", e.Type)
		}
		payload = recordPayload{
			ID:       e.Record.ID,
			Name:     e.Record.Name,
			Content:  e.Record.Content,
			Language: e.Record.Language,
		}
	case EventFileDeleted:
		payload = deletedPayload{ID: e.ID}
	default:
		return json.Marshal(struct {
			Type EventType `json:"type"`
		}{e.Type})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEvent{Type: e.Type, Payload: data})
}

// UnmarshalJSON decodes the wire shape produced by MarshalJSON.
func (e *ChangeEvent) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*e = ChangeEvent{Type: w.Type}
	switch w.Type {
	case EventFileCreated, EventFileUpdated:
		var p recordPayload
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", w.Type, err)
		}
		e.ID = p.ID
		e.Record = &Record{ID: p.ID, Name: p.Name, Content: p.Content, Language: p.Language}
	case EventFileDeleted:
		var p deletedPayload
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", w.Type, err)
		}
		e.ID = p.ID
	}
	return nil
}
