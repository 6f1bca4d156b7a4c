package openai

import (
	"errors"

	ai "github.com/novelvision/llmgate"
	"github.com/novelvision/llmgate/internal/provider"
	"github.com/openai/openai-go"
)

// wrapError classifies an OpenAI SDK error.
// API errors keep their status code, body and Retry-After header; everything
// else is treated as a transport failure.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return provider.ClassifyError(err)
	}

	body := apiErr.RawJSON()
	if body == "" {
		body = apiErr.Message
	}
	return ai.NewHTTPError(
		apiErr.StatusCode,
		provider.TruncateBody(body),
		provider.ParseRetryAfter(apiErr.Response),
		err,
	)
}
