package flow

import (
	"context"
	"fmt"

	"github.com/finwell/finwell/internal/model"
)

// Lesson is one unit inside a course.
type Lesson struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Course is a learning hub course with its ordered lessons.
type Course struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

// The built-in learning hub catalog.
var courses = []Course{
	{
		ID:    "budgeting_basics",
		Title: "Budgeting Basics",
		Lessons: []Lesson{
			{ID: "budgeting_basics_1", Title: "Why Budget?"},
			{ID: "budgeting_basics_2", Title: "Planning Your Monthly Budget"},
			{ID: "budgeting_basics_3", Title: "Sticking to the Plan"},
		},
	},
	{
		ID:    "savings_101",
		Title: "Savings 101",
		Lessons: []Lesson{
			{ID: "savings_101_1", Title: "Pay Yourself First"},
			{ID: "savings_101_2", Title: "Building an Emergency Fund"},
		},
	},
	{
		ID:    "debt_management",
		Title: "Managing Debt",
		Lessons: []Lesson{
			{ID: "debt_management_1", Title: "Good Debt, Bad Debt"},
			{ID: "debt_management_2", Title: "Paying Down What You Owe"},
		},
	},
}

// LearningService tracks per-session course progress and sends lesson
// completion emails.
type LearningService struct {
	deps Deps
}

// NewLearningService creates the learning hub service.
func NewLearningService(deps Deps) *LearningService {
	return &LearningService{deps: deps}
}

// Courses returns the course catalog.
func (s *LearningService) Courses() []Course {
	return courses
}

func findCourse(courseID string) (*Course, error) {
	for i := range courses {
		if courses[i].ID == courseID {
			return &courses[i], nil
		}
	}
	return nil, invalid("course_id", "unknown course")
}

func (c *Course) lesson(lessonID string) (*Lesson, error) {
	for i := range c.Lessons {
		if c.Lessons[i].ID == lessonID {
			return &c.Lessons[i], nil
		}
	}
	return nil, invalid("lesson_id", "unknown lesson")
}

// progressFor returns the session's progress record for a course, or
// nil when the course has not been started.
func (s *LearningService) progressFor(ctx context.Context, sessionID, courseID string) (*model.Record, *model.LearningProgress, error) {
	records, err := s.deps.Store.FilterByOwner(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	for _, rec := range records {
		progress, ok := rec.Payload.(*model.LearningProgress)
		if ok && progress.CourseID == courseID {
			return rec, progress, nil
		}
	}
	return nil, nil, nil
}

// CompleteLessonInput carries a lesson completion request.
type CompleteLessonInput struct {
	CourseID  string `json:"course_id"`
	LessonID  string `json:"lesson_id"`
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	SendEmail bool   `json:"send_email"`
}

// CompleteLesson marks a lesson finished, creating the course progress
// record on first contact, and emails a completion note when opted in.
// Completing the same lesson twice is a no-op.
func (s *LearningService) CompleteLesson(ctx context.Context, sessionID, lang string, in CompleteLessonInput) (*model.LearningProgress, error) {
	course, err := findCourse(in.CourseID)
	if err != nil {
		return nil, err
	}
	lesson, err := course.lesson(in.LessonID)
	if err != nil {
		return nil, err
	}
	if in.SendEmail && !validEmail(in.Email) {
		return nil, invalid("email", "a valid email is required for completion notes")
	}

	rec, progress, err := s.progressFor(ctx, sessionID, in.CourseID)
	if err != nil {
		return nil, err
	}

	alreadyDone := progress != nil && hasLesson(progress, in.LessonID)

	if progress == nil {
		progress = &model.LearningProgress{CourseID: in.CourseID}
		progress.CompleteLesson(in.LessonID)
		rec = model.NewRecord(sessionID, progress, in.Email, lang)
		if err := s.deps.Store.Append(ctx, rec); err != nil {
			return nil, fmt.Errorf("append learning progress: %w", err)
		}
	} else {
		progress.CompleteLesson(in.LessonID)
		if err := s.deps.Store.UpdateByID(ctx, rec.ID, progress); err != nil {
			return nil, fmt.Errorf("update learning progress: %w", err)
		}
	}

	if !alreadyDone && in.SendEmail && in.Email != "" {
		notify(ctx, s.deps, &model.NotificationRequest{
			To:          in.Email,
			TemplateKey: model.TemplateLessonCompleted,
			Data: map[string]any{
				"first_name":   in.FirstName,
				"course_title": course.Title,
				"lesson_title": lesson.Title,
			},
			Lang: lang,
		})
	}
	return progress, nil
}

// RecordQuizScore upserts a course quiz score, keeping the best one.
func (s *LearningService) RecordQuizScore(ctx context.Context, sessionID, lang, courseID, quizID string, score int) (*model.LearningProgress, error) {
	if _, err := findCourse(courseID); err != nil {
		return nil, err
	}
	if score < 0 {
		return nil, invalid("score", "score cannot be negative")
	}

	rec, progress, err := s.progressFor(ctx, sessionID, courseID)
	if err != nil {
		return nil, err
	}

	if progress == nil {
		progress = &model.LearningProgress{CourseID: courseID}
		progress.RecordQuizScore(quizID, score)
		rec = model.NewRecord(sessionID, progress, "", lang)
		if err := s.deps.Store.Append(ctx, rec); err != nil {
			return nil, fmt.Errorf("append learning progress: %w", err)
		}
		return progress, nil
	}

	progress.RecordQuizScore(quizID, score)
	if err := s.deps.Store.UpdateByID(ctx, rec.ID, progress); err != nil {
		return nil, fmt.Errorf("update learning progress: %w", err)
	}
	return progress, nil
}

// Progress lists every course progress record for the session.
func (s *LearningService) Progress(ctx context.Context, sessionID string) ([]*model.LearningProgress, error) {
	records, err := s.deps.Store.FilterByOwner(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.LearningProgress, 0, len(records))
	for _, rec := range records {
		if progress, ok := rec.Payload.(*model.LearningProgress); ok {
			out = append(out, progress)
		}
	}
	return out, nil
}

func hasLesson(p *model.LearningProgress, lessonID string) bool {
	for _, done := range p.LessonsCompleted {
		if done == lessonID {
			return true
		}
	}
	return false
}
