package domain

import (
	"errors"
	"fmt"
)

// Axis tags which score dimension a question moves and in which direction.
type Axis string

const (
	AxisXPlus  Axis = "x+"
	AxisXMinus Axis = "x-"
	AxisYPlus  Axis = "y+"
	AxisYMinus Axis = "y-"
	AxisZPlus  Axis = "z+"
	AxisZMinus Axis = "z-"
)

// Valid reports whether a is one of the six known tags.
func (a Axis) Valid() bool {
	switch a {
	case AxisXPlus, AxisXMinus, AxisYPlus, AxisYMinus, AxisZPlus, AxisZMinus:
		return true
	}
	return false
}

// Question is a quiz statement bound to one signed axis.
type Question struct {
	Text string `json:"question" yaml:"question"`
	Axis Axis   `json:"axis" yaml:"axis"`
}

// Option is an answer label and its weight. Options are global to a questionnaire.
type Option struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// Options keeps answer options in presentation order.
type Options []Option

// Weight looks up the weight of label.
func (o Options) Weight(label string) (float64, bool) {
	for _, opt := range o {
		if opt.Label == label {
			return opt.Weight, true
		}
	}
	return 0, false
}

// Labels returns the option labels in order.
func (o Options) Labels() []string {
	out := make([]string, len(o))
	for i, opt := range o {
		out[i] = opt.Label
	}
	return out
}

// Questionnaire is the full question sequence plus the answer scale.
type Questionnaire struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
	Options   Options    `json:"options"`
}

// Validate checks the minimum needed to run a quiz.
func (q Questionnaire) Validate() error {
	if len(q.Questions) == 0 {
		return ErrNoQuestions
	}
	if len(q.Options) == 0 {
		return errors.New("questionnaire has no answer options")
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if _, dup := seen[opt.Label]; dup {
			return fmt.Errorf("duplicate answer option %q", opt.Label)
		}
		seen[opt.Label] = struct{}{}
	}
	for i, question := range q.Questions {
		if !question.Axis.Valid() {
			return fmt.Errorf("question %d: %w %q", i+1, ErrUnknownAxis, question.Axis)
		}
	}
	return nil
}

// Score is a position on the three political axes.
type Score struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add moves the score by weight along axis; a "-" tag subtracts.
func (s Score) Add(axis Axis, weight float64) (Score, error) {
	switch axis {
	case AxisXPlus:
		s.X += weight
	case AxisXMinus:
		s.X -= weight
	case AxisYPlus:
		s.Y += weight
	case AxisYMinus:
		s.Y -= weight
	case AxisZPlus:
		s.Z += weight
	case AxisZMinus:
		s.Z -= weight
	default:
		return s, fmt.Errorf("%w %q", ErrUnknownAxis, axis)
	}
	return s, nil
}

// Respondent is the categorical metadata captured when a quiz completes.
type Respondent struct {
	Gender     string `json:"gender"`
	Field      string `json:"field"`
	University string `json:"university"`
	Course     string `json:"course"`
}
