package chat

import (
	"slices"
	"unicode/utf8"

	"github.com/firebase/genkit/go/ai"
)

// TokenBudget caps how much conversation history is replayed to the model.
// The system prompt and response share the rest of the context window.
type TokenBudget struct {
	MaxHistoryTokens int
}

// DefaultTokenBudget returns conservative defaults for gpt-4o-mini.
func DefaultTokenBudget() TokenBudget {
	return TokenBudget{
		MaxHistoryTokens: 8000,
	}
}

// estimateTokens provides a rough token count.
// Uses rune count divided by 2 as a conservative estimate that works
// for both English (~4 chars/token) and CJK (~1.5 chars/token) text.
func estimateTokens(text string) int {
	return utf8.RuneCountInString(text) / 2
}

// estimateMessagesTokens estimates total tokens across messages.
func estimateMessagesTokens(msgs []*ai.Message) int {
	total := 0
	for _, msg := range msgs {
		for _, part := range msg.Content {
			total += estimateTokens(part.Text)
		}
	}
	return total
}

// truncateHistory drops the oldest messages until the history fits the
// budget. Newest messages are kept since they carry the active context.
func (a *Agent) truncateHistory(msgs []*ai.Message, budget int) []*ai.Message {
	if len(msgs) == 0 {
		return msgs
	}

	currentTokens := estimateMessagesTokens(msgs)
	if currentTokens <= budget {
		return msgs
	}

	kept := make([]*ai.Message, 0, len(msgs))
	remaining := budget
	for i := len(msgs) - 1; i >= 0; i-- {
		msgTokens := estimateMessagesTokens(msgs[i : i+1])
		if remaining < msgTokens {
			break
		}
		kept = append(kept, msgs[i])
		remaining -= msgTokens
	}
	slices.Reverse(kept)

	a.logger.Debug("history truncated",
		"original_count", len(msgs),
		"new_count", len(kept),
		"estimated_tokens", currentTokens,
		"budget", budget,
	)

	return kept
}
