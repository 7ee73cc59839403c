package models

// TriggerKind discriminates the trigger union handled by the scheduler.
type TriggerKind string

const (
	NewRequestTriggerKind TriggerKind = "new_request"
	UserReplyTriggerKind  TriggerKind = "user_reply"
)

// Trigger is the external event that advances a scheduling conversation.
// Exactly one payload field is set, matching Kind. Construct via
// NewRequestTrigger or UserReplyTrigger.
type Trigger struct {
	Kind           TriggerKind
	ConversationID string
	Request        *EventRequest // set when Kind == NewRequestTriggerKind
	Text           string        // set when Kind == UserReplyTriggerKind
}

// NewRequestTrigger wraps a fresh scheduling request for a conversation.
func NewRequestTrigger(conversationID string, req EventRequest) Trigger {
	return Trigger{
		Kind:           NewRequestTriggerKind,
		ConversationID: conversationID,
		Request:        &req,
	}
}

// UserReplyTrigger wraps a free-text user message in an ongoing conversation.
func UserReplyTrigger(conversationID, text string) Trigger {
	return Trigger{
		Kind:           UserReplyTriggerKind,
		ConversationID: conversationID,
		Text:           text,
	}
}
