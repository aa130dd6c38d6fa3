package crmclient

import (
	"context"
	"net/http"

	"polimata/pkg/domain"
)

// SendChatMessage posts a user message to the assistant and returns its reply.
func (c *Client) SendChatMessage(ctx context.Context, content string) (domain.ChatReply, error) {
	msg := domain.ChatMessage{Content: content, Type: "user"}
	var reply domain.ChatReply
	if err := c.doJSON(ctx, http.MethodPost, "/chat/message", nil, msg, &reply); err != nil {
		return domain.ChatReply{}, err
	}
	return reply, nil
}
