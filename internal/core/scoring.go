package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikey/llm-mail-digest/internal/utils"
	"go.uber.org/zap"
)

// DefaultBodyLimit is the number of body characters sent to the LLM
const DefaultBodyLimit = 1000

const promptFormat = `Rate email NECESSITY and URGENCY 1-10 and summarize. Return JSON only:

{"summary": "brief summary", "importance_score": 1-10, "importance_level": "low/medium/high", "reason": "why this score"}

From: %s
Subject: %s
Body: %s

Scoring: 1-4=ignorable, 5-7=review later, 8-10=urgent`

// ScoringClient scores one message with a single LLM call
type ScoringClient struct {
	llmClient     LLMClient
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	bodyLimit     int
}

// NewScoringClient creates a new scoring client
func NewScoringClient(
	llmClient LLMClient,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	bodyLimit int,
) *ScoringClient {
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyLimit
	}
	return &ScoringClient{
		llmClient:     llmClient,
		textProcessor: textProcessor,
		logger:        logger,
		bodyLimit:     bodyLimit,
	}
}

// BuildPrompt renders the scoring prompt for a message
func (c *ScoringClient) BuildPrompt(msg Message) string {
	body := c.textProcessor.ProcessText(msg.Body, c.bodyLimit)
	return fmt.Sprintf(promptFormat, msg.Sender, msg.Subject, body)
}

// Score returns the raw LLM reply for the message. Any failure is reported
// as a *ScoringFailure.
func (c *ScoringClient) Score(ctx context.Context, msg Message) (string, error) {
	c.logger.Debug("Scoring message", zap.Int("index", msg.Index))

	reply, err := c.llmClient.Complete(ctx, c.BuildPrompt(msg))
	if err != nil {
		return "", &ScoringFailure{Index: msg.Index, Stage: StageScore, Err: err}
	}
	if strings.TrimSpace(reply) == "" {
		return "", &ScoringFailure{Index: msg.Index, Stage: StageResponse, Err: ErrEmptyResponse}
	}

	return reply, nil
}

// Assess scores the message and normalizes the reply
func (c *ScoringClient) Assess(ctx context.Context, msg Message) (ScoreRecord, error) {
	reply, err := c.Score(ctx, msg)
	if err != nil {
		return ScoreRecord{}, err
	}
	return Normalize(reply), nil
}
