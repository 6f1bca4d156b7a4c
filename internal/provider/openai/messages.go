package openai

import (
	ai "github.com/novelvision/llmgate"
	"github.com/openai/openai-go"
)

func convertMessages(messages []ai.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == ai.RoleSystem {
			result = append(result, openai.SystemMessage(msg.Content))
			continue
		}
		result = append(result, openai.UserMessage(msg.Content))
	}
	return result
}
