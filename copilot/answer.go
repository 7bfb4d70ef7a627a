package copilot

import (
	"fmt"
	"strings"

	"github.com/preston-fay/televantage-copilot/chart"
)

// Citation points the reader at the source backing part of an answer.
type Citation struct {
	Source string `json:"source"`
	Ref    string `json:"ref"`
}

// Answer is the only object Ask ever returns. It is schema-valid even on
// error paths: at least 20 characters of text, at least one citation,
// and between 2 and 5 follow-up suggestions.
type Answer struct {
	Text      string       `json:"text"`
	Citations []Citation   `json:"citations"`
	Chart     *chart.Chart `json:"chart,omitempty"`
	FollowUps []string     `json:"followUps"`
}

const (
	minAnswerText = 20
	minFollowUps  = 2
	maxFollowUps  = 5
)

// Validate checks the answer contract.
func (a *Answer) Validate() error {
	var errs []string
	if len(strings.TrimSpace(a.Text)) < minAnswerText {
		errs = append(errs, fmt.Sprintf("text must be at least %d characters", minAnswerText))
	}
	if len(a.Citations) == 0 {
		errs = append(errs, "at least one citation is required")
	}
	if len(a.FollowUps) < minFollowUps || len(a.FollowUps) > maxFollowUps {
		errs = append(errs, fmt.Sprintf("follow-ups must number between %d and %d, got %d", minFollowUps, maxFollowUps, len(a.FollowUps)))
	}
	if a.Chart != nil {
		if v := chart.Validate(a.Chart); !v.Valid {
			errs = append(errs, "chart: "+strings.Join(v.Errors, "; "))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid answer: %s", strings.Join(errs, "; "))
	}
	return nil
}
