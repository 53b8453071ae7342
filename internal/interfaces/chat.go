package interfaces

import (
	"context"

	"github.com/ternarybob/custos/internal/models"
)

// Responder delivers replies back to the conversation a message came from.
// The chat transport provides the implementation; the bot pipeline only
// ever talks to this interface.
type Responder interface {
	Reply(ctx context.Context, reply models.ChatReply) error
}

// MessageHandler consumes inbound chat messages. Replies are posted through
// the responder as results become available; there is no ordering guarantee
// across multiple issue keys in one message.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg models.ChatMessage, responder Responder)
}
