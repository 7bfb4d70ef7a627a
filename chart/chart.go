// Package chart defines the normalized chart payload handed to a
// rendering frontend, plus its validation rules.
package chart

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is the sentinel wrapped by Validation.Err.
var ErrInvalid = errors.New("chart: invalid")

// Kind enumerates the supported chart shapes.
type Kind string

const (
	KindBar           Kind = "bar"
	KindDonut         Kind = "donut"
	KindLine          Kind = "line"
	KindHorizontalBar Kind = "horizontal-bar"
)

// Point is one {x,y} datum in a series. X is always stringified so
// categorical and temporal axes share one shape.
type Point struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// Series is a named run of points.
type Series struct {
	Name string  `json:"name"`
	Data []Point `json:"data"`
}

// Chart is a renderable chart description. Donut charts never carry axis
// labels; every other kind must carry both.
type Chart struct {
	Kind   Kind     `json:"kind"`
	Title  string   `json:"title"`
	XLabel string   `json:"xLabel,omitempty"`
	YLabel string   `json:"yLabel,omitempty"`
	Series []Series `json:"series"`
}

// ValidKind reports whether k is a renderable kind.
func ValidKind(k Kind) bool {
	switch k {
	case KindBar, KindDonut, KindLine, KindHorizontalBar:
		return true
	}
	return false
}

// Validation is the outcome of Validate. Errors lists every failed
// check, not just the first.
type Validation struct {
	Valid  bool
	Errors []string
}

// Err folds the outcome into a single error wrapping ErrInvalid, or nil
// when the chart is valid.
func (v Validation) Err() error {
	if v.Valid {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(v.Errors, "; "))
}

// Validate checks a chart against the rendering contract, collecting all
// failures so a retry loop can report every problem at once.
func Validate(c *Chart) Validation {
	var errs []string
	if c == nil {
		return Validation{Valid: false, Errors: []string{"chart is missing"}}
	}
	if !ValidKind(c.Kind) {
		errs = append(errs, fmt.Sprintf("unknown chart kind %q", c.Kind))
	}
	if len(strings.TrimSpace(c.Title)) < 3 {
		errs = append(errs, "chart title must be at least 3 characters")
	}
	if len(c.Series) == 0 {
		errs = append(errs, "chart must have at least one series")
	}
	if c.Kind != KindDonut {
		if strings.TrimSpace(c.XLabel) == "" {
			errs = append(errs, "X-axis label is required for non-donut charts")
		}
		if strings.TrimSpace(c.YLabel) == "" {
			errs = append(errs, "Y-axis label is required for non-donut charts")
		}
	}
	if len(c.Series) > 0 && len(c.Series[0].Data) == 0 {
		errs = append(errs, "first series has no data points")
	}
	return Validation{Valid: len(errs) == 0, Errors: errs}
}
