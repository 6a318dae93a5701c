package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/markdave123-py/studybuddy/internal/core"
	"github.com/markdave123-py/studybuddy/internal/core/apperr"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
	"github.com/markdave123-py/studybuddy/internal/core/progress"
	"github.com/markdave123-py/studybuddy/internal/models"
)

type progressStore interface {
	core.MaterialStore
	core.ArtifactStore
	core.ProgressStore
}

// ProgressService owns each user's streak, quiz history and topic heatmap.
type ProgressService struct {
	db  progressStore
	loc *time.Location
	now func() time.Time
	log *logger.Logger
}

// NewProgressService counts study days in loc (UTC when nil).
func NewProgressService(db progressStore, loc *time.Location, log *logger.Logger) *ProgressService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ProgressService{db: db, loc: loc, now: time.Now, log: log}
}

// RecordStudyActivity marks today as a study day and returns the new streak.
func (s *ProgressService) RecordStudyActivity(ctx context.Context, userID string) (progress.Streak, error) {
	today := progress.DateOf(s.now(), s.loc)
	rec, err := s.db.UpdateProgress(ctx, userID, func(rec *models.ProgressRecord) error {
		next, err := rec.Streak.Record(today)
		if err != nil {
			return err
		}
		rec.Streak = next
		return nil
	})
	if errors.Is(err, progress.ErrBackdatedActivity) {
		return progress.Streak{}, apperr.Input("study activity is older than the last recorded study day")
	}
	if err != nil {
		return progress.Streak{}, apperr.Internal("could not update streak", err)
	}
	return rec.Streak, nil
}

// LogQuizResult appends a quiz attempt and sets the heatmap entry of the
// quiz's topic to score. score is a percentage in [0, 100].
func (s *ProgressService) LogQuizResult(ctx context.Context, userID, quizID string, score float64) (*models.ProgressRecord, error) {
	if strings.TrimSpace(quizID) == "" {
		return nil, apperr.Input("quizId is required")
	}
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 || score > 100 {
		return nil, apperr.Input("score must be a number between 0 and 100")
	}

	quiz, err := s.db.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, apperr.Internal("could not load quiz", err)
	}
	if quiz == nil {
		return nil, apperr.NotFound("quiz not found")
	}
	m, err := s.db.GetMaterialByID(ctx, quiz.MaterialID)
	if err != nil {
		return nil, apperr.Internal("could not load material", err)
	}
	if m == nil {
		return nil, apperr.NotFound("quiz not found")
	}
	if m.UserID != userID {
		return nil, apperr.Authorization("you do not have access to this quiz")
	}

	topic := progress.TopicFromFileName(m.FileName)
	takenAt := s.now().UTC()
	rec, err := s.db.UpdateProgress(ctx, userID, func(rec *models.ProgressRecord) error {
		rec.QuizScores = append(rec.QuizScores, models.QuizScore{
			QuizID:    quiz.ID,
			QuizTitle: quiz.Title,
			Score:     score,
			TakenAt:   takenAt,
		})
		if rec.Heatmap == nil {
			rec.Heatmap = progress.Heatmap{}
		}
		rec.Heatmap.Set(topic, score)
		return nil
	})
	if err != nil {
		return nil, apperr.Internal("could not log quiz result", err)
	}
	return rec, nil
}

// Dashboard reads the user's progress. A user with no record gets zero values;
// no record is created.
func (s *ProgressService) Dashboard(ctx context.Context, userID string) (models.Dashboard, error) {
	rec, err := s.db.GetProgress(ctx, userID)
	if err != nil {
		return models.Dashboard{}, apperr.Internal("could not load progress", err)
	}
	if rec == nil {
		rec = models.NewProgressRecord(userID)
	}
	scores := rec.QuizScores
	if scores == nil {
		scores = []models.QuizScore{}
	}
	return models.Dashboard{
		QuizScores:       scores,
		StudyStreaks:     rec.Streak,
		KnowledgeHeatmap: rec.Heatmap.Snapshot(),
	}, nil
}
