package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"polcoord/internal/domain"
)

// State is the position of a quiz attempt in its lifecycle.
type State string

const (
	// StateInProgress: current index < N, a question is waiting for an answer.
	StateInProgress State = "in_progress"
	// StateJustCompleted: every question is answered; the next Advance writes the record.
	StateJustCompleted State = "just_completed"
	// StateAwaitingReset: the record is written; the next Advance starts over.
	StateAwaitingReset State = "awaiting_reset"
)

// RecordCreator persists a finished attempt as a new respondent record.
type RecordCreator interface {
	Create(ctx context.Context, who domain.Respondent, score domain.Score) (domain.Record, error)
}

// Step is what the presentation layer needs to render an attempt.
type Step struct {
	State    State            `json:"state"`
	Index    int              `json:"index"`
	Total    int              `json:"total"`
	Question *domain.Question `json:"question,omitempty"`
	Options  []string         `json:"options"`
	Score    domain.Score     `json:"score"`
	Record   *domain.Record   `json:"record,omitempty"`
}

// Scorer accumulates a 3-axis score over a shuffled question sequence.
//
// Completion lags by one call: the Advance that answers the last question
// only scores it, and the following Advance (answer label ignored) captures
// the respondent metadata and appends the record. One more Advance resets.
type Scorer struct {
	mu            sync.Mutex
	questionnaire domain.Questionnaire
	records       RecordCreator
	shuffle       func([]domain.Question)

	order  []domain.Question
	index  int
	score  domain.Score
	record *domain.Record
}

type ScorerOption func(*Scorer)

// WithShuffle replaces the random permutation applied on every (re)start.
func WithShuffle(fn func([]domain.Question)) ScorerOption {
	return func(s *Scorer) { s.shuffle = fn }
}

// WithRand shuffles with the given source, for reproducible orders.
func WithRand(rnd *rand.Rand) ScorerOption {
	return func(s *Scorer) { s.shuffle = shuffleWith(rnd) }
}

func NewScorer(q domain.Questionnaire, records RecordCreator, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		questionnaire: q,
		records:       records,
		shuffle:       shuffleWith(rand.New(rand.NewSource(time.Now().UnixNano()))),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reset()
	return s
}

// Advance feeds one answer (or, past the last question, the completion or
// reset trigger) into the attempt. On error the attempt is left unchanged.
func (s *Scorer) Advance(ctx context.Context, label string, who domain.Respondent) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.order)
	switch {
	case s.index > n:
		s.reset()
	case s.index == n:
		rec, err := s.records.Create(ctx, who, s.score)
		if err != nil {
			return s.stepLocked(), fmt.Errorf("complete quiz: %w", err)
		}
		s.record = &rec
		s.index++
	default:
		weight, ok := s.questionnaire.Options.Weight(label)
		if !ok {
			return s.stepLocked(), fmt.Errorf("%w %q", domain.ErrUnknownAnswerOption, label)
		}
		score, err := s.score.Add(s.order[s.index].Axis, weight)
		if err != nil {
			return s.stepLocked(), err
		}
		s.score = score
		s.index++
	}
	return s.stepLocked(), nil
}

// Step reports the attempt without changing it.
func (s *Scorer) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepLocked()
}

// Order returns the current question order.
func (s *Scorer) Order() []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Question, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Scorer) reset() {
	order := make([]domain.Question, len(s.questionnaire.Questions))
	copy(order, s.questionnaire.Questions)
	s.shuffle(order)
	s.order = order
	s.index = 0
	s.score = domain.Score{}
	s.record = nil
}

func (s *Scorer) stateLocked() State {
	n := len(s.order)
	switch {
	case s.index < n:
		return StateInProgress
	case s.index == n:
		return StateJustCompleted
	default:
		return StateAwaitingReset
	}
}

func (s *Scorer) stepLocked() Step {
	step := Step{
		State:   s.stateLocked(),
		Index:   s.index,
		Total:   len(s.order),
		Options: s.questionnaire.Options.Labels(),
		Score:   s.score,
	}
	if step.State == StateInProgress {
		q := s.order[s.index]
		step.Question = &q
	}
	if s.record != nil {
		rec := *s.record
		step.Record = &rec
	}
	return step
}

func shuffleWith(rnd *rand.Rand) func([]domain.Question) {
	return func(qs []domain.Question) {
		rnd.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	}
}
