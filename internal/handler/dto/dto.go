// Package dto defines request and response structures for the API.
package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finwell/finwell/internal/flow"
	"github.com/finwell/finwell/internal/model"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// StepResponse acknowledges a saved flow step.
type StepResponse struct {
	Status   string `json:"status"`
	NextStep int    `json:"next_step"`
}

// RecordResponse is the envelope returned for any materialized record.
// Data carries the typed payload; its shape depends on Kind.
type RecordResponse struct {
	ID        string        `json:"id"`
	Kind      model.Kind    `json:"kind"`
	CreatedAt time.Time     `json:"created_at"`
	Data      model.Payload `json:"data"`
}

// recordResponseJSON mirrors RecordResponse with a raw payload for
// two-phase decoding.
type recordResponseJSON struct {
	ID        string          `json:"id"`
	Kind      model.Kind      `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
	Data      json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes the envelope, then the payload based on Kind,
// so API clients get a typed payload back.
func (r *RecordResponse) UnmarshalJSON(b []byte) error {
	var raw recordResponseJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	payload, err := model.DecodePayload(raw.Kind, raw.Data)
	if err != nil {
		return err
	}

	r.ID = raw.ID
	r.Kind = raw.Kind
	r.CreatedAt = raw.CreatedAt
	r.Data = payload
	return nil
}

// ToRecordResponse converts a record to its response form. The owner
// key and contact email stay server-side.
func ToRecordResponse(rec *model.Record) RecordResponse {
	return RecordResponse{
		ID:        rec.ID,
		Kind:      rec.Kind,
		CreatedAt: rec.CreatedAt,
		Data:      rec.Payload,
	}
}

// ListResponse wraps a collection of records.
type ListResponse struct {
	Records []RecordResponse `json:"records"`
	Total   int              `json:"total"`
}

// ToListResponse converts a record slice.
func ToListResponse(records []*model.Record) ListResponse {
	out := ListResponse{Records: make([]RecordResponse, 0, len(records))}
	for _, rec := range records {
		out.Records = append(out.Records, ToRecordResponse(rec))
	}
	out.Total = len(out.Records)
	return out
}

// UnsubscribeResponse reports how many records had email cleared.
type UnsubscribeResponse struct {
	Updated int `json:"updated"`
}

// DashboardResponse aggregates a session's bills for display.
type DashboardResponse struct {
	Bills        []RecordResponse           `json:"bills"`
	PaidCount    int                        `json:"paid_count"`
	UnpaidCount  int                        `json:"unpaid_count"`
	OverdueCount int                        `json:"overdue_count"`
	PendingCount int                        `json:"pending_count"`
	TotalPaid    decimal.Decimal            `json:"total_paid"`
	TotalUnpaid  decimal.Decimal            `json:"total_unpaid"`
	TotalOverdue decimal.Decimal            `json:"total_overdue"`
	TotalBills   decimal.Decimal            `json:"total_bills"`
	ByCategory   map[string]decimal.Decimal `json:"by_category"`
	DueToday     []RecordResponse           `json:"due_today"`
	DueWeek      []RecordResponse           `json:"due_week"`
	DueMonth     []RecordResponse           `json:"due_month"`
}

// ToDashboardResponse converts a bill dashboard.
func ToDashboardResponse(d *flow.BillDashboard) DashboardResponse {
	convert := func(records []*model.Record) []RecordResponse {
		out := make([]RecordResponse, 0, len(records))
		for _, rec := range records {
			out = append(out, ToRecordResponse(rec))
		}
		return out
	}
	return DashboardResponse{
		Bills:        convert(d.Bills),
		PaidCount:    d.PaidCount,
		UnpaidCount:  d.UnpaidCount,
		OverdueCount: d.OverdueCount,
		PendingCount: d.PendingCount,
		TotalPaid:    d.TotalPaid,
		TotalUnpaid:  d.TotalUnpaid,
		TotalOverdue: d.TotalOverdue,
		TotalBills:   d.TotalBills,
		ByCategory:   d.ByCategory,
		DueToday:     convert(d.DueToday),
		DueWeek:      convert(d.DueWeek),
		DueMonth:     convert(d.DueMonth),
	}
}

// BudgetStep2Request carries the income step.
type BudgetStep2Request struct {
	MonthlyIncome string `json:"monthly_income"`
}

// BudgetStep4Request carries the savings goal for completion.
type BudgetStep4Request struct {
	SavingsGoal string `json:"savings_goal"`
}

// NetWorthStep3Request carries the liabilities for completion.
type NetWorthStep3Request struct {
	Loans string `json:"loans"`
}

// EmergencyFundStep4Request carries the target timeline for completion.
type EmergencyFundStep4Request struct {
	TimelineMonths int `json:"timeline_months"`
}

// QuizAnswersRequest carries one page of quiz answers.
type QuizAnswersRequest struct {
	Answers map[string]string `json:"answers"`
}

// QuestionResponse is a quiz question localized for the session.
type QuestionResponse struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

// QuestionsResponse is one page of quiz questions.
type QuestionsResponse struct {
	Page      int                `json:"page"`
	Questions []QuestionResponse `json:"questions"`
}

// LessonResponse is a lesson summary within a course.
type LessonResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CourseResponse is a course with its lesson list.
type CourseResponse struct {
	ID      string           `json:"id"`
	Title   string           `json:"title"`
	Lessons []LessonResponse `json:"lessons"`
}

// ToCourseResponse converts a course.
func ToCourseResponse(c flow.Course) CourseResponse {
	out := CourseResponse{ID: c.ID, Title: c.Title}
	for _, lesson := range c.Lessons {
		out.Lessons = append(out.Lessons, LessonResponse{ID: lesson.ID, Title: lesson.Title})
	}
	return out
}

// ProgressResponse is the per-course learning progress.
type ProgressResponse struct {
	CourseID         string         `json:"course_id"`
	LessonsCompleted []string       `json:"lessons_completed"`
	QuizScores       map[string]int `json:"quiz_scores,omitempty"`
	CurrentLesson    string         `json:"current_lesson,omitempty"`
}

// ToProgressResponse converts a learning progress payload.
func ToProgressResponse(p *model.LearningProgress) ProgressResponse {
	return ProgressResponse{
		CourseID:         p.CourseID,
		LessonsCompleted: p.LessonsCompleted,
		QuizScores:       p.QuizScores,
		CurrentLesson:    p.CurrentLesson,
	}
}

// QuizScoreRequest records a course quiz attempt.
type QuizScoreRequest struct {
	CourseID string `json:"course_id"`
	QuizID   string `json:"quiz_id"`
	Score    int    `json:"score"`
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest authenticates an account.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is the public view of an account. The password hash
// never appears here.
type UserResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Lang     string `json:"lang,omitempty"`
}

// ToUserResponse converts a user payload.
func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{Username: u.Username, Email: u.Email, Lang: u.Lang}
}
