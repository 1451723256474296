// Package responder binds one AI assistant to each live chat connection.
//
// A responder carries its own conversational memory, seeded once at creation
// with the CropGen persona and company knowledge. Every Ask sends the full
// accumulated history to the model, so the assistant remembers earlier turns
// for the lifetime of the connection.
package responder

import (
	"context"
	"log/slog"

	"github.com/cropgen/agrichat/internal/genai"
	"github.com/openai/openai-go"
)

// Responder answers free-form messages on behalf of one connection.
type Responder interface {
	Ask(ctx context.Context, text string) (string, error)
}

// Factory creates a fresh responder for a connection.
type Factory interface {
	NewResponder(connectionID string) Responder
}

// GenAIFactory builds responders backed by a shared GenAI client.
type GenAIFactory struct {
	client genai.ClientInterface
}

// NewGenAIFactory creates a responder factory using the given GenAI client.
func NewGenAIFactory(client genai.ClientInterface) *GenAIFactory {
	return &GenAIFactory{client: client}
}

// NewResponder creates a responder seeded with the persona and company
// knowledge. The seed messages are sent with every completion but never
// re-appended.
func (f *GenAIFactory) NewResponder(connectionID string) Responder {
	slog.Debug("Creating AI responder", "connectionID", connectionID)
	return &genAIResponder{
		client:       f.client,
		connectionID: connectionID,
		history: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPersona),
			openai.UserMessage("Company official information:"),
			openai.AssistantMessage(companyKnowledge),
		},
	}
}

type genAIResponder struct {
	client       genai.ClientInterface
	connectionID string
	history      []openai.ChatCompletionMessageParamUnion
}

// Ask sends the message with the accumulated history and records both turns.
// On failure the user turn is kept but no assistant turn is recorded, and the
// error is returned for the caller to convert to a fallback reply.
func (r *genAIResponder) Ask(ctx context.Context, text string) (string, error) {
	r.history = append(r.history, openai.UserMessage(text))

	reply, err := r.client.GenerateWithMessages(ctx, r.history)
	if err != nil {
		slog.Warn("Responder Ask failed", "error", err, "connectionID", r.connectionID)
		return "", err
	}

	r.history = append(r.history, openai.AssistantMessage(reply))
	slog.Debug("Responder Ask succeeded", "connectionID", r.connectionID, "replyLength", len(reply))
	return reply, nil
}
