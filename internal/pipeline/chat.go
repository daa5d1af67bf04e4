package pipeline

import (
	"context"
	"regexp"

	"fleetmind/internal/logging"
)

// The chat stage handles small talk and anything the planner could not
// map to an operation. Greetings are answered without model cost.

var reChatGreeting = regexp.MustCompile(`(?i)\b(hi|hello|hey|namaste|namaskar|hola)\b|kaise ho|how are you`)

const chatGreetingReply = "Hi! I'm ready to help with drivers, vehicles, trips, loads and expenses. " +
	"Tell me what you'd like to do."

const chatFallbackReply = "I can help with trips, vehicles, loads, and expenses."

func (p *Pipeline) chat(ctx context.Context, st *TurnState) {
	if reChatGreeting.MatchString(st.UserInput) {
		st.AppendAssistant(chatGreetingReply)
		st.NextAction = ActionEnd
		return
	}

	content := chatFallbackReply
	if p.llm != nil {
		reply, err := p.llm.CompleteWithSystem(ctx, chatSystemPrompt, st.UserInput)
		if err != nil {
			logging.Get(logging.CategoryPlanner).Warn("chat completion failed: %v", err)
			content = "Sorry, I couldn't process that right now."
		} else if reply != "" {
			content = reply
		}
	}
	st.AppendAssistant(content)
	st.NextAction = ActionEnd
}
