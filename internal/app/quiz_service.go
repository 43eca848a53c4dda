package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"polcoord/internal/domain"
)

// AttemptRepository abstracts where live quiz attempts are kept (in-memory, Redis, etc).
type AttemptRepository interface {
	GetOrCreate(attemptID string, create func() *Scorer) (*Scorer, bool)
	Get(attemptID string) (*Scorer, bool)
	// Release undoes one GetOrCreate; the attempt goes away with its last holder.
	Release(attemptID string)
}

// QuestionnaireRepository loads quiz content (from cache/backing store).
type QuestionnaireRepository interface {
	GetQuestionnaire(ctx context.Context, id string) (domain.Questionnaire, error)
}

// QuizService contains the quiz-taking use cases.
type QuizService struct {
	attempts        AttemptRepository
	questionnaires  QuestionnaireRepository
	questionnaireID string
	records         RecordCreator
	log             *zap.Logger
	scorerOpts      []ScorerOption
}

func NewQuizService(attempts AttemptRepository, questionnaires QuestionnaireRepository, questionnaireID string, records RecordCreator, log *zap.Logger, opts ...ScorerOption) *QuizService {
	if log == nil {
		log = zap.NewNop()
	}
	return &QuizService{
		attempts:        attempts,
		questionnaires:  questionnaires,
		questionnaireID: questionnaireID,
		records:         records,
		log:             log,
		scorerOpts:      opts,
	}
}

// Questionnaire returns the active questionnaire.
func (s *QuizService) Questionnaire(ctx context.Context) (domain.Questionnaire, error) {
	return s.questionnaires.GetQuestionnaire(ctx, s.questionnaireID)
}

// Start opens an attempt, or returns the current step of an existing one.
func (s *QuizService) Start(ctx context.Context, attemptID string) (Step, error) {
	// Load first; attempts cannot start on an unknown questionnaire.
	q, err := s.Questionnaire(ctx)
	if err != nil {
		return Step{}, err
	}
	if err := q.Validate(); err != nil {
		return Step{}, err
	}

	scorer, created := s.attempts.GetOrCreate(attemptID, func() *Scorer {
		return NewScorer(q, s.records, s.scorerOpts...)
	})
	if created {
		s.log.Info("quiz attempt started", zap.String("attempt", attemptID), zap.Int("questions", len(q.Questions)))
	}
	return scorer.Step(), nil
}

// Advance forwards one answer to the attempt's scorer.
func (s *QuizService) Advance(ctx context.Context, attemptID, answer string, who domain.Respondent) (Step, error) {
	scorer, ok := s.attempts.Get(attemptID)
	if !ok {
		return Step{}, domain.ErrAttemptNotFound
	}
	before := scorer.Step().State
	step, err := scorer.Advance(ctx, answer, who)
	if err != nil {
		if !errors.Is(err, domain.ErrUnknownAnswerOption) {
			s.log.Error("quiz advance failed", zap.String("attempt", attemptID), zap.Error(err))
		}
		return step, err
	}

	switch {
	case before == StateJustCompleted && step.Record != nil:
		s.log.Info("quiz completed",
			zap.String("attempt", attemptID),
			zap.Int("id", step.Record.ID),
			zap.Float64("x", step.Score.X),
			zap.Float64("y", step.Score.Y),
			zap.Float64("z", step.Score.Z),
		)
	case before == StateAwaitingReset:
		s.log.Info("quiz attempt reset", zap.String("attempt", attemptID))
	}
	return step, nil
}

// Abandon releases the caller's hold on an attempt without writing anything.
// Each Start must be paired with one Abandon; the attempt is dropped once
// every connection that started it has abandoned it.
func (s *QuizService) Abandon(_ context.Context, attemptID string) {
	s.attempts.Release(attemptID)
}
