package llmgate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChatRequest(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		req, err := NewChatRequest("Who is the narrator?")
		require.NoError(t, err)

		assert.Equal(t, "Who is the narrator?", req.UserPrompt())
		assert.Empty(t, req.SystemPrompt())
		assert.Equal(t, DefaultTemperature, req.Temperature())
		assert.Equal(t, DefaultMaxTokens, req.MaxTokens())
		assert.Empty(t, req.ProviderHint())
	})

	t.Run("applies options", func(t *testing.T) {
		req, err := NewChatRequest("prompt",
			WithSystemPrompt("system"),
			WithTemperature(0),
			WithMaxTokens(16),
			WithProviderHint("zhipu"),
		)
		require.NoError(t, err)

		assert.Equal(t, "system", req.SystemPrompt())
		assert.Equal(t, 0.0, req.Temperature())
		assert.Equal(t, 16, req.MaxTokens())
		assert.Equal(t, Provider("zhipu"), req.ProviderHint())
	})

	t.Run("later options win", func(t *testing.T) {
		req, err := NewChatRequest("prompt", WithTemperature(0.1), WithTemperature(1.5))
		require.NoError(t, err)
		assert.Equal(t, 1.5, req.Temperature())
	})
}

func TestNewChatRequestValidation(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		opts   []RequestOption
		want   error
	}{
		{"empty prompt", "", nil, ErrEmptyPrompt},
		{"negative temperature", "p", []RequestOption{WithTemperature(-0.1)}, ErrInvalidTemperature},
		{"temperature above max", "p", []RequestOption{WithTemperature(2.01)}, ErrInvalidTemperature},
		{"NaN temperature", "p", []RequestOption{WithTemperature(math.NaN())}, ErrInvalidTemperature},
		{"zero max tokens", "p", []RequestOption{WithMaxTokens(0)}, ErrInvalidMaxTokens},
		{"negative max tokens", "p", []RequestOption{WithMaxTokens(-1)}, ErrInvalidMaxTokens},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChatRequest(tt.prompt, tt.opts...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("boundary temperatures are valid", func(t *testing.T) {
		for _, temp := range []float64{0, MaxTemperature} {
			_, err := NewChatRequest("p", WithTemperature(temp))
			assert.NoError(t, err)
		}
	})
}

func TestApplyRequestOptions(t *testing.T) {
	opts := ApplyRequestOptions()
	assert.Nil(t, opts.Temperature)
	assert.Nil(t, opts.MaxTokens)
	assert.Empty(t, opts.SystemPrompt)

	opts = ApplyRequestOptions(WithTemperature(0.5), WithMaxTokens(10))
	require.NotNil(t, opts.Temperature)
	require.NotNil(t, opts.MaxTokens)
	assert.Equal(t, 0.5, *opts.Temperature)
	assert.Equal(t, 10, *opts.MaxTokens)
}
