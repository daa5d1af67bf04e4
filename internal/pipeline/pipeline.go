package pipeline

import (
	"context"
	"strings"

	"fleetmind/internal/llm"
	"fleetmind/internal/logging"
	"fleetmind/internal/store"
)

// Pipeline wires the turn-processing stages over a store and an
// optional LLM client. A nil client degrades gracefully: the router
// fast paths still work and the planner falls back to chat.
type Pipeline struct {
	store          *store.Store
	llm            llm.Client
	autoLoop       bool
	maxIterations  int
	structuredJSON bool
}

// Options tune pipeline behavior.
type Options struct {
	// AutoLoop lets an incomplete result trigger another planner pass
	// within the same turn.
	AutoLoop bool
	// MaxIterations bounds auto-loop passes per turn.
	MaxIterations int
	// StructuredJSON renders every reply as a JSON document.
	StructuredJSON bool
}

// New creates a pipeline.
func New(st *store.Store, client llm.Client, opts Options) *Pipeline {
	maxIters := opts.MaxIterations
	if maxIters < 1 {
		maxIters = 3
	}
	return &Pipeline{
		store:          st,
		llm:            client,
		autoLoop:       opts.AutoLoop,
		maxIterations:  maxIters,
		structuredJSON: opts.StructuredJSON,
	}
}

// stepLimit guards against a routing bug looping forever. Normal turns
// finish in well under a dozen transitions even with the auto-loop.
const stepLimit = 32

// ProcessTurn runs one user message through the stages and returns the
// assistant reply. The state's messages, entities, and focus are
// updated in place so callers can persist them between turns.
func (p *Pipeline) ProcessTurn(ctx context.Context, st *TurnState) string {
	st.UserInput = strings.TrimSpace(st.UserInput)
	if st.Entities == nil {
		st.Entities = make(Entities)
	}
	if st.Focus == nil {
		st.Focus = make(map[string]int64)
	}
	if st.MaxIterations < 1 {
		st.MaxIterations = p.maxIterations
	}
	st.AutoLoop = st.AutoLoop || p.autoLoop
	st.Iteration = 0
	st.LastResult = nil
	st.Summary = ""
	st.Err = ""

	st.Messages = append(st.Messages, Message{Role: "user", Content: st.UserInput})
	logging.Router("turn start role=%s input=%q", st.ActorRole, st.UserInput)

	p.route(st)

	for steps := 0; st.NextAction != ActionEnd; steps++ {
		if steps >= stepLimit {
			logging.Router("step limit reached, forcing end (intent=%s action=%s)", st.Intent, st.NextAction)
			break
		}
		switch st.NextAction {
		case ActionPlanner:
			p.plan(ctx, st)
		case ActionResolve:
			p.resolve(st)
		case ActionMutation:
			p.execMutation(st)
		case ActionQuery:
			p.execQuery(st)
		case ActionVerify:
			p.verify(st)
		case ActionReflect:
			p.reflect(st)
		case ActionChat:
			p.chat(ctx, st)
		case ActionLoop:
			st.NextAction = ActionPlanner
		default:
			st.NextAction = ActionEnd
		}
	}

	reply := st.LastReply()
	logging.Router("turn end intent=%s reply_len=%d", st.Intent, len(reply))
	return reply
}
