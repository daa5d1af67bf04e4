// Package pipeline implements the turn-processing state machine that
// converts free-form logistics requests into store mutations, queries,
// and user-facing replies. A turn runs through a fixed set of stages
// (router, planner, resolver, executors, verifier, reflector) connected
// by a next-action signal on the shared turn state.
package pipeline

import (
	"strconv"
	"strings"

	"fleetmind/internal/authz"
)

// Action is the routing signal between pipeline stages.
type Action string

const (
	ActionEnd      Action = "end"
	ActionPlanner  Action = "planner"
	ActionResolve  Action = "resolve"
	ActionMutation Action = "mutation"
	ActionQuery    Action = "query"
	ActionVerify   Action = "verify"
	ActionReflect  Action = "reflect"
	ActionChat     Action = "chat"
	ActionLoop     Action = "loop"
)

// Message is one conversation entry.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Entities is the flat extracted-slot map accumulated across turns.
type Entities map[string]any

// RawInputKey stores the latest raw user text inside the entity map so
// downstream heuristics (role inference during register_user) can see
// it without re-threading the input.
const RawInputKey = "_raw_user_input"

// Merge overlays src onto e. New values override, absent keys survive.
func (e Entities) Merge(src Entities) {
	for k, v := range src {
		e[k] = v
	}
}

// Clone returns a shallow copy.
func (e Entities) Clone() Entities {
	out := make(Entities, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Int64 coerces the value at key to an int64. JSON numbers arrive as
// float64, router extractions as int64, and model output occasionally
// as digit strings.
func (e Entities) Int64(key string) (int64, bool) {
	return toInt64(e[key])
}

// Float coerces the value at key to a float64.
func (e Entities) Float(key string) (float64, bool) {
	return toFloat(e[key])
}

// Str returns the value at key as a trimmed string, or "".
func (e Entities) Str(key string) string {
	return toString(e[key])
}

// Has reports whether key holds a non-empty value.
func (e Entities) Has(key string) bool {
	v, ok := e[key]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// First returns the first non-empty value among keys.
func (e Entities) First(keys ...string) (any, bool) {
	for _, k := range keys {
		if e.Has(k) {
			return e[k], true
		}
	}
	return nil, false
}

// FirstStr returns the first non-empty string value among keys.
func (e Entities) FirstStr(keys ...string) string {
	for _, k := range keys {
		if s := e.Str(k); s != "" {
			return s
		}
	}
	return ""
}

// FirstInt64 returns the first coercible id among keys.
func (e Entities) FirstInt64(keys ...string) (int64, bool) {
	for _, k := range keys {
		if !e.Has(k) {
			continue
		}
		if n, ok := e.Int64(k); ok {
			return n, true
		}
	}
	return 0, false
}

// Result is the flat outcome map a stage leaves for verification and
// reflection. Executors populate it with a status field plus scalar
// result fields.
type Result map[string]any

// Status returns the lowercased status field.
func (r Result) Status() string {
	return strings.ToLower(toString(r["status"]))
}

// Message returns the message field, or fallback when absent.
func (r Result) Message(fallback string) string {
	if s := toString(r["message"]); s != "" {
		return s
	}
	return fallback
}

// TurnState is the mutable state threaded through one processed turn.
// Messages, Entities, and Focus survive across turns via the session
// store; everything else is per-turn scratch.
type TurnState struct {
	Messages   []Message
	UserInput  string
	ActorRole  authz.Role
	Intent     Intent
	Entities   Entities
	Focus      map[string]int64
	NextAction Action
	LastResult Result
	Summary    string
	Err        string

	Iteration     int
	MaxIterations int
	AutoLoop      bool
}

// NewTurnState builds a state for a fresh conversation.
func NewTurnState(input string, role authz.Role) *TurnState {
	return &TurnState{
		UserInput: strings.TrimSpace(input),
		ActorRole: role,
		Entities:  make(Entities),
		Focus:     make(map[string]int64),
	}
}

// AppendAssistant appends an assistant reply to the conversation.
func (st *TurnState) AppendAssistant(content string) {
	st.Messages = append(st.Messages, Message{Role: "assistant", Content: content})
}

// LastReply returns the most recent assistant message, or "".
func (st *TurnState) LastReply() string {
	for i := len(st.Messages) - 1; i >= 0; i-- {
		if st.Messages[i].Role == "assistant" {
			return st.Messages[i].Content
		}
	}
	return ""
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(s, 10)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}
