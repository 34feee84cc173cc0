package agent

import (
	"github.com/tmc/langchaingo/prompts"
)

const (
	replyAskName        = "Sure! Let's book your interview. What's your full name?"
	replyNameRequired   = "Please tell me your full name."
	replyAskEmail       = "Got it. Could you provide your email address?"
	replyInvalidEmail   = "Hmm, that doesn't look like a valid email. Please provide a valid email address (e.g., john@example.com)."
	replyAskDate        = "Thanks! What date would you like for the interview? (Format: YYYY-MM-DD)"
	replyInvalidDate    = "That date doesn't look right. Please provide a valid date in YYYY-MM-DD format."
	replyAskTime        = "Perfect. What time works best for you? (Format: HH:MM in 24-hour time)"
	replyInvalidTime    = "Please provide a valid time in 24-hour format (e.g., 14:30)."
	replyBookedFmt      = "Interview booked successfully for %s on %s at %s."
	replyInvalidBooking = "Invalid booking input: "
	replyRestartBooking = ". Say \"book interview\" to start again."
)

const (
	contextUnavailable = "Vector store not available"
	contextEmpty       = "No relevant context found."
	contextErrorPrefix = "Error retrieving context: "
	historyUnavailable = "chat history not available"
)

const chatTemplate = `You are a helpful assistant. Answer questions using the provided context and conversation history. Keep responses clear, accurate, and relevant.

Context:
{{.context}}

Conversation so far:
{{.history}}

User: {{.query}}
Assistant:`

func newChatPrompt() prompts.PromptTemplate {
	return prompts.NewPromptTemplate(chatTemplate, []string{"context", "history", "query"})
}
