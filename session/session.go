// Package session stores conversation history so the chat surface can
// replay prior questions and answers.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/preston-fay/televantage-copilot/copilot"
)

// Turn is one question and its answer.
type Turn struct {
	ID       string         `json:"id"`
	Question string         `json:"question"`
	Answer   copilot.Answer `json:"answer"`
	AskedAt  time.Time      `json:"asked_at"`
}

// NewTurn records a question/answer pair.
func NewTurn(question string, answer copilot.Answer) Turn {
	return Turn{
		ID:       uuid.NewString(),
		Question: question,
		Answer:   answer,
		AskedAt:  time.Now().UTC(),
	}
}

// Store persists conversation turns keyed by session id.
type Store interface {
	Append(ctx context.Context, sessionID string, turn Turn) error
	History(ctx context.Context, sessionID string) ([]Turn, error)
	Clear(ctx context.Context, sessionID string) error
}
