package google

import (
	"errors"

	ai "github.com/novelvision/llmgate"
	"github.com/novelvision/llmgate/internal/provider"
	"google.golang.org/genai"
)

// wrapError classifies a Google GenAI error.
// Note: genai.APIError doesn't expose headers, so Retry-After is not available.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fromAPIError(apiErr, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return fromAPIError(*apiErrPtr, err)
	}

	return provider.ClassifyError(err)
}

func fromAPIError(apiErr genai.APIError, cause error) error {
	body := apiErr.Message
	if apiErr.Status != "" {
		body = apiErr.Status + ": " + body
	}
	return ai.NewHTTPError(apiErr.Code, provider.TruncateBody(body), 0, cause)
}
