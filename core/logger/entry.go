package logger

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Event types written to the log.
const (
	TypeRunCommand     = "run_command"
	TypeUnknownCommand = "unknown_command"
	TypeSyntaxError    = "syntax_error"
	TypeResourceError  = "resource_error"
	TypeSpawnError     = "spawn_error"
)

// Field names used in the encoded struct.
const (
	fieldTimestamp = "timestamp_micros"
	fieldSession   = "session_id"
	fieldType      = "type"
	fieldLine      = "line"
	fieldCommand   = "command"
	fieldStatus    = "status"
	fieldError     = "error"
)

// Event is a single thing that happened in a shell session.
type Event struct {
	Type    string
	Line    string
	Command []string
	Status  int
	Error   string
}

// Entry is an Event as stored in the log.
type Entry struct {
	Event

	SessionID string
	Timestamp time.Time
}

// toStruct converts the entry into its wire form.
func (e *Entry) toStruct() (*structpb.Struct, error) {
	command := make([]interface{}, len(e.Command))
	for i, arg := range e.Command {
		command[i] = arg
	}

	fields := map[string]interface{}{
		fieldTimestamp: float64(e.Timestamp.UnixNano() / int64(time.Microsecond)),
		fieldSession:   e.SessionID,
		fieldType:      e.Type,
		fieldLine:      e.Line,
		fieldCommand:   command,
		fieldStatus:    float64(e.Status),
	}
	if e.Error != "" {
		fields[fieldError] = e.Error
	}

	return structpb.NewStruct(fields)
}

// entryFromStruct is the inverse of toStruct.
func entryFromStruct(s *structpb.Struct) (*Entry, error) {
	fields := s.GetFields()

	eventType := fields[fieldType].GetStringValue()
	if eventType == "" {
		return nil, fmt.Errorf("log entry missing %q", fieldType)
	}

	entry := &Entry{
		Event: Event{
			Type:   eventType,
			Line:   fields[fieldLine].GetStringValue(),
			Status: int(fields[fieldStatus].GetNumberValue()),
			Error:  fields[fieldError].GetStringValue(),
		},
		SessionID: fields[fieldSession].GetStringValue(),
	}

	micros := int64(fields[fieldTimestamp].GetNumberValue())
	entry.Timestamp = time.Unix(0, micros*int64(time.Microsecond)).UTC()

	for _, arg := range fields[fieldCommand].GetListValue().GetValues() {
		entry.Command = append(entry.Command, arg.GetStringValue())
	}

	return entry, nil
}

// Name returns the command name or an empty string.
func (e *Event) Name() string {
	if len(e.Command) == 0 {
		return ""
	}
	return e.Command[0]
}
