package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *Entry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var rawEntry json.RawMessage
		if err := decoder.Decode(&rawEntry); err != nil {
			return err
		}

		var encoded structpb.Struct
		if err := protojson.Unmarshal(rawEntry, &encoded); err != nil {
			return err
		}

		entry, err := entryFromStruct(&encoded)
		if err != nil {
			return err
		}

		handler(entry)
	}
	return nil
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	Sessions       int        `json:"sessions"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`

	RunCommand     RunCommandReport     `json:"run_command_report"`
	UnknownCommand UnknownCommandReport `json:"unknown_command_report"`
	Errors         ErrorReport          `json:"error_report"`

	sessions map[string]bool
}

// Update adds the entry to the report.
func (r *Report) Update(le *Entry) {
	r.LogEntries++

	if r.sessions == nil {
		r.sessions = make(map[string]bool)
	}
	if !r.sessions[le.SessionID] {
		r.sessions[le.SessionID] = true
		r.Sessions++
	}

	switch le.Type {
	case TypeRunCommand:
		r.RunCommand.update(&le.Event)
	case TypeUnknownCommand:
		r.UnknownCommand.update(&le.Event)
	case TypeSyntaxError, TypeResourceError, TypeSpawnError:
		r.Errors.update(&le.Event)
	default:
		r.InvalidEntries.Increment(le.Type)
	}
}

type RunCommandReport struct {
	// Name of the command
	CommandNames StrCounter `json:"command_names"`
	// Exit statuses of the whole line
	Statuses StrCounter `json:"statuses"`
}

func (r *RunCommandReport) update(e *Event) {
	r.CommandNames.Increment(e.Name())
	r.Statuses.Increment(strconv.Itoa(e.Status))
}

type UnknownCommandReport struct {
	CommandNames StrCounter `json:"command_names"`
}

func (r *UnknownCommandReport) update(e *Event) {
	r.CommandNames.Increment(e.Name())
}

type ErrorReport struct {
	Types    StrCounter `json:"types"`
	Messages StrCounter `json:"messages"`
}

func (r *ErrorReport) update(e *Event) {
	r.Types.Increment(e.Type)
	r.Messages.Increment(e.Error)
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Count returns the number of times the key was seen.
func (s *StrCounter) Count(key string) int {
	return s.internal[key]
}

// Top returns keys ordered by descending count then name.
func (s *StrCounter) Top() []string {
	var keys []string
	for k := range s.internal {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		ci, cj := s.internal[keys[i]], s.internal[keys[j]]
		if ci == cj {
			return keys[i] < keys[j]
		}
		return ci > cj
	})
	return keys
}

// String implements fmt.Stringer.
func (s StrCounter) String() string {
	return fmt.Sprint(s.internal)
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}
