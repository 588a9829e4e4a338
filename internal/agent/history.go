package agent

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
)

// Conversation is the append-only message log for one chat session.
// Tool request and response messages are kept alongside user and model
// turns so the model always sees the full trajectory.
//
// Not safe for concurrent use; a session belongs to one REPL loop.
type Conversation struct {
	id   uuid.UUID
	msgs []*ai.Message
}

// NewConversation starts an empty session with a fresh ID.
func NewConversation() *Conversation {
	return &Conversation{id: uuid.New()}
}

// ID returns the session identifier.
func (c *Conversation) ID() uuid.UUID {
	return c.id
}

// AddUser appends a user turn.
func (c *Conversation) AddUser(text string) {
	c.msgs = append(c.msgs, ai.NewUserMessage(ai.NewTextPart(text)))
}

// Add appends an arbitrary message (model turns, tool responses).
func (c *Conversation) Add(msg *ai.Message) {
	c.msgs = append(c.msgs, msg)
}

// Messages returns a copy of the log. The slice is fresh on every call
// so callers can append without aliasing the conversation.
func (c *Conversation) Messages() []*ai.Message {
	cp := make([]*ai.Message, len(c.msgs))
	copy(cp, c.msgs)
	return cp
}

// Len returns the number of messages in the log.
func (c *Conversation) Len() int {
	return len(c.msgs)
}
