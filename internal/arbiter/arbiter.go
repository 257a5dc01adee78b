package arbiter

import (
	"errors"
	"strings"

	"chainsight/internal/conversation"
)

// ErrNoCandidate is returned when no message in a run qualifies as an answer.
// Callers substitute FallbackReply; this error never reaches the end user.
var ErrNoCandidate = errors.New("no qualifying assistant message")

// FallbackReply is surfaced when arbitration finds no candidate.
const FallbackReply = "I couldn't generate a proper response. Please try again."

const minAnswerLength = 20

// Multi-provider runs interleave short hand-off notes ("Transferring to
// visualization_agent") and placeholder chatter with the real answer. There is
// no structured is-final marker, so length is the proxy for completeness.
func qualifies(m conversation.Message) bool {
	if m.Role != conversation.RoleAssistant {
		return false
	}
	content := strings.TrimSpace(m.Content)
	if content == "" || content == "..." {
		return false
	}
	if len(m.Content) <= minAnswerLength {
		return false
	}
	if strings.Contains(strings.ToLower(m.Content), "transferring") {
		return false
	}
	return true
}

// Select picks the single message to present as the answer for a run: the
// longest qualifying assistant message, ties broken by earliest Seq so the
// result is stable for a fixed input.
func Select(messages []conversation.Message) (conversation.Message, error) {
	var best conversation.Message
	found := false
	for _, m := range messages {
		if !qualifies(m) {
			continue
		}
		longer := len(m.Content) > len(best.Content)
		tieEarlier := len(m.Content) == len(best.Content) && m.Seq < best.Seq
		if !found || longer || tieEarlier {
			best = m
			found = true
		}
	}
	if !found {
		return conversation.Message{}, ErrNoCandidate
	}
	return best, nil
}
