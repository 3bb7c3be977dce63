package promptbuilder

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/teilomillet/promptbuilder/utils"
)

const fallbackTokenModel = "gpt-4o"

// TokenCounter counts the tokens of rendered prompts for a model. The
// encoding is loaded on first use; when it cannot be loaded the count is
// estimated from the word count.
type TokenCounter struct {
	model    string
	logger   utils.Logger
	once     sync.Once
	encoding *tiktoken.Tiktoken
}

// NewTokenCounter returns a counter for model.
func NewTokenCounter(model string, logger utils.Logger) *TokenCounter {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &TokenCounter{model: model, logger: logger}
}

func (c *TokenCounter) load() {
	encoding, err := tiktoken.EncodingForModel(c.model)
	if err != nil {
		c.logger.Warn("Failed to get encoding for model, defaulting to gpt-4o", "model", c.model, "error", err)
		encoding, err = tiktoken.EncodingForModel(fallbackTokenModel)
		if err != nil {
			c.logger.Warn("Token encoding unavailable, estimating from words", "error", err)
			return
		}
	}
	c.encoding = encoding
}

// Count returns the number of tokens in text.
func (c *TokenCounter) Count(text string) int {
	c.once.Do(c.load)
	if c.encoding != nil {
		return len(c.encoding.Encode(text, nil, nil))
	}
	return EstimateTokens(text)
}

// EstimateTokens approximates a token count as four tokens per three words.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	return (words*4 + 2) / 3
}
