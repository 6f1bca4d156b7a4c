package anthropic

import (
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	ai "github.com/novelvision/llmgate"
	"github.com/novelvision/llmgate/internal/provider"
)

// wrapError classifies an Anthropic SDK error.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return provider.ClassifyError(err)
	}

	return ai.NewHTTPError(
		apiErr.StatusCode,
		provider.TruncateBody(apiErr.RawJSON()),
		provider.ParseRetryAfter(apiErr.Response),
		err,
	)
}
