package checklist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StateVersion is the version written by EncodeState.
const StateVersion = 2

// ErrUnsupportedVersion is returned for payloads written by a newer release.
var ErrUnsupportedVersion = errors.New("unsupported checklist state version")

type stateV2 struct {
	Version        int        `json:"version"`
	CheckedIDs     []string   `json:"checked_ids"`
	StartTime      *time.Time `json:"start_time"`
	CurrentSection int        `json:"current_section"`
}

// stateV1 is the unversioned browser format: {"checked": [...], "startTime": "..."}.
type stateV1 struct {
	Checked   []string `json:"checked"`
	StartTime string   `json:"startTime"`
}

// EncodeState serialises a session in the current format.
func EncodeState(s *Session) ([]byte, error) {
	return json.Marshal(stateV2{
		Version:        StateVersion,
		CheckedIDs:     s.CheckedIDs(),
		StartTime:      s.StartTime(),
		CurrentSection: s.currentSection,
	})
}

// DecodeState restores a session from any known format. Empty input yields
// an empty session.
func DecodeState(data []byte) (*Session, error) {
	session := NewSession()
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return session, nil
	}

	switch data[0] {
	case '[':
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return nil, fmt.Errorf("decode checklist ids: %w", err)
		}
		addAll(session, ids)
		return session, nil
	case '{':
	default:
		return nil, fmt.Errorf("decode checklist state: unexpected payload")
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode checklist state: %w", err)
	}

	if rawVersion, ok := probe["version"]; ok {
		var version int
		if err := json.Unmarshal(rawVersion, &version); err != nil {
			return nil, fmt.Errorf("decode checklist state version: %w", err)
		}
		if version != StateVersion {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
		}
		var state stateV2
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, fmt.Errorf("decode checklist state: %w", err)
		}
		addAll(session, state.CheckedIDs)
		if state.StartTime != nil {
			t := *state.StartTime
			session.startTime = &t
		}
		if state.CurrentSection > 0 {
			session.currentSection = state.CurrentSection
		}
		return session, nil
	}

	if _, ok := probe["checked"]; ok {
		return decodeV1(data)
	}

	return decodeV0(probe)
}

func decodeV1(data []byte) (*Session, error) {
	var state stateV1
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode legacy checklist state: %w", err)
	}

	session := NewSession()
	addAll(session, state.Checked)
	if state.StartTime != "" {
		start, err := time.Parse(time.RFC3339Nano, state.StartTime)
		if err != nil {
			return nil, fmt.Errorf("decode legacy start time: %w", err)
		}
		session.startTime = &start
	}
	return session, nil
}

// decodeV0 reads the per-activity {"<id>": true} maps.
func decodeV0(probe map[string]json.RawMessage) (*Session, error) {
	session := NewSession()
	for id, raw := range probe {
		var checked bool
		if err := json.Unmarshal(raw, &checked); err != nil {
			return nil, fmt.Errorf("decode legacy check state for %q: %w", id, err)
		}
		if checked {
			session.checked[id] = struct{}{}
		}
	}
	return session, nil
}

func addAll(s *Session, ids []string) {
	for _, id := range ids {
		if id != "" {
			s.checked[id] = struct{}{}
		}
	}
}
