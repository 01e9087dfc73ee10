package ocr

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

// Prompt asks the model for one "description | quantity" line per delivered item.
const Prompt = `This is a scanned delivery note. List every delivered item with its delivered quantity.
Use the item description exactly as printed. Respond in plain text, one item per line,
format: description | quantity`

type messageCreator interface {
	CreateMessages(ctx context.Context, req anthropic.MessagesRequest) (anthropic.MessagesResponse, error)
}

// Vision reads delivery note photos through a Claude vision model.
type Vision struct {
	client    messageCreator
	model     string
	maxTokens int
}

// NewVision builds a vision extractor for apiKey.
func NewVision(apiKey, model string, maxTokens int) *Vision {
	return newVision(anthropic.NewClient(apiKey), model, maxTokens)
}

func newVision(client messageCreator, model string, maxTokens int) *Vision {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Vision{client: client, model: model, maxTokens: maxTokens}
}

// Extract sends the image with Prompt and parses the reply.
func (v *Vision) Extract(ctx context.Context, data []byte, mimeType string) ([]Line, error) {
	resp, err := v.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(v.model),
		MaxTokens: v.maxTokens,
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
					anthropic.MessagesContentSourceTypeBase64,
					normaliseMIME(mimeType),
					base64.StdEncoding.EncodeToString(data),
				)),
				anthropic.NewTextMessageContent(Prompt),
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("vision request: %w", err)
	}
	return ParseResponse(resp.GetFirstContentText()), nil
}

// normaliseMIME maps image types to the ones the model accepts, falling back to jpeg.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
