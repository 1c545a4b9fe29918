// Package classify maps centipawn loss to a move-quality category.
package classify

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// Category is one of the eight move-quality labels.
type Category string

const (
	Brilliant  Category = "brilliant"
	Great      Category = "great"
	Best       Category = "best"
	Excellent  Category = "excellent"
	Good       Category = "good"
	Inaccuracy Category = "inaccuracy"
	Mistake    Category = "mistake"
	Blunder    Category = "blunder"
)

// Categories lists every category in report order.
var Categories = []Category{
	Brilliant, Great, Best, Excellent, Good, Inaccuracy, Mistake, Blunder,
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	_, ok := reasons[c]
	return ok
}

var reasons = map[Category]string{
	Brilliant:  "A brilliant tactical idea that gained decisive advantage.",
	Great:      "A very strong move that keeps an advantage.",
	Best:       "Engine agrees — the best move in the position.",
	Excellent:  "An excellent move improving the position.",
	Good:       "A good solid move.",
	Inaccuracy: "A small inaccuracy that slightly worsened the position.",
	Mistake:    "A mistake that lost significant advantage or material.",
	Blunder:    "A blunder that lost material or allowed decisive tactics.",
}

// Reason returns the fixed explanation for c, or "" for an unknown category.
func Reason(c Category) string {
	return reasons[c]
}

// Thresholds are inclusive upper bounds of centipawn loss per category.
type Thresholds struct {
	Great      int `json:"great"`
	Excellent  int `json:"excellent"`
	Good       int `json:"good"`
	Inaccuracy int `json:"inaccuracy"`
	Mistake    int `json:"mistake"`
}

// DefaultThresholds returns the stock boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Great:      10,
		Excellent:  30,
		Good:       75,
		Inaccuracy: 150,
		Mistake:    300,
	}
}

// Validate checks that the bounds are non-negative and non-decreasing.
func (t Thresholds) Validate() error {
	bounds := []struct {
		name  string
		value int
	}{
		{"great", t.Great},
		{"excellent", t.Excellent},
		{"good", t.Good},
		{"inaccuracy", t.Inaccuracy},
		{"mistake", t.Mistake},
	}
	for i, b := range bounds {
		if b.value < 0 {
			return fmt.Errorf("threshold %s is negative: %d", b.name, b.value)
		}
		if i > 0 && b.value < bounds[i-1].value {
			return fmt.Errorf("threshold %s (%d) below %s (%d)",
				b.name, b.value, bounds[i-1].name, bounds[i-1].value)
		}
	}
	return nil
}

// LoadThresholds reads a calibration result such as
//
//	{"brilliant": 0, "great": 12, "excellent": 35, "good": 80, "inaccuracy": 140, "mistake": 280}
//
// Keys that are not thresholds are ignored; missing keys keep their default.
// Fractional values are rounded.
func LoadThresholds(r io.Reader) (Thresholds, error) {
	var raw map[string]float64
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Thresholds{}, fmt.Errorf("decode thresholds: %w", err)
	}

	t := DefaultThresholds()
	fields := map[string]*int{
		"great":      &t.Great,
		"excellent":  &t.Excellent,
		"good":       &t.Good,
		"inaccuracy": &t.Inaccuracy,
		"mistake":    &t.Mistake,
	}
	for name, v := range raw {
		if dst, ok := fields[name]; ok {
			*dst = int(math.Round(v))
		}
	}

	if err := t.Validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}

// Classifier assigns categories under a fixed set of thresholds.
type Classifier struct {
	t Thresholds
}

// New returns a classifier for t.
func New(t Thresholds) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{t: t}, nil
}

// Default returns a classifier using DefaultThresholds.
func Default() *Classifier {
	return &Classifier{t: DefaultThresholds()}
}

// Thresholds returns the bounds in use.
func (c *Classifier) Thresholds() Thresholds {
	return c.t
}

// Classify labels a move. A zero loss is "best" only when the engine's top
// choice was played. Brilliant is never assigned here.
func (c *Classifier) Classify(cpLoss int, isEngineTop bool) Category {
	if cpLoss < 0 {
		cpLoss = 0
	}
	switch {
	case cpLoss == 0 && isEngineTop:
		return Best
	case cpLoss == 0, cpLoss <= c.t.Great:
		return Great
	case cpLoss <= c.t.Excellent:
		return Excellent
	case cpLoss <= c.t.Good:
		return Good
	case cpLoss <= c.t.Inaccuracy:
		return Inaccuracy
	case cpLoss <= c.t.Mistake:
		return Mistake
	default:
		return Blunder
	}
}
