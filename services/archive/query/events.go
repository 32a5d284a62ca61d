package query

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	EventNameDone         = "done"
	EventNameInaccessible = "inaccessible"
	EventNameError        = "error"
)

// Event is the single terminal outcome of an accepted subscription. It is one of
// EventDone, EventInaccessible or EventError.
type Event interface {
	Name() string
	isEvent()
}

// EventDone carries the operation result: a hex string for body and header, []string for
// hashByHeight and *string for storage, nil meaning the key is absent.
type EventDone struct {
	Result any
}

// EventInaccessible means the block is unknown or its data is no longer retained.
type EventInaccessible struct{}

// EventError reports a failed backend lookup.
type EventError struct {
	Message string
}

func (EventDone) isEvent()         {}
func (EventInaccessible) isEvent() {}
func (EventError) isEvent()        {}

func (EventDone) Name() string         { return EventNameDone }
func (EventInaccessible) Name() string { return EventNameInaccessible }
func (EventError) Name() string        { return EventNameError }

func (e EventDone) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Event  string `json:"event"`
		Result any    `json:"result"`
	}{
		Event:  EventNameDone,
		Result: e.Result,
	})
}

func (EventInaccessible) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Event string `json:"event"`
	}{
		Event: EventNameInaccessible,
	})
}

func (e EventError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Event string `json:"event"`
		Error string `json:"error"`
	}{
		Event: EventNameError,
		Error: e.Message,
	})
}

// UnmarshalEvent decodes the JSON form of an event. Done results come back as the generic
// JSON types: string, []interface{} or nil.
func UnmarshalEvent(data []byte) (Event, error) {
	var raw struct {
		Event  string              `json:"event"`
		Result jsoniter.RawMessage `json:"result"`
		Error  string              `json:"error"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	switch raw.Event {
	case EventNameDone:
		var result any
		if len(raw.Result) > 0 {
			if err := json.Unmarshal(raw.Result, &result); err != nil {
				return nil, err
			}
		}

		return EventDone{Result: result}, nil
	case EventNameInaccessible:
		return EventInaccessible{}, nil
	case EventNameError:
		return EventError{Message: raw.Error}, nil
	}

	return nil, errUnknownEvent(raw.Event)
}
