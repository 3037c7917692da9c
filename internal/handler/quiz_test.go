package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/finwell/finwell/internal/flow"
	"github.com/finwell/finwell/internal/handler/dto"
	"github.com/finwell/finwell/internal/model"
)

func TestQuizHandler_Questions(t *testing.T) {
	env := newTestEnv(t)
	h := NewQuizHandler(env.flows.Quiz, env.metrics, env.logger)

	rec := httptest.NewRecorder()
	h.Questions(rec, request(t, http.MethodGet, "/api/v1/quiz/questions?page=1", "sess-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp dto.QuestionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode questions: %v", err)
	}
	if len(resp.Questions) != 5 {
		t.Fatalf("expected 5 questions per page, got %d", len(resp.Questions))
	}
	for _, q := range resp.Questions {
		if q.ID == "" || q.Prompt == "" {
			t.Errorf("question missing id or prompt: %+v", q)
		}
	}

	rec = httptest.NewRecorder()
	h.Questions(rec, request(t, http.MethodGet, "/api/v1/quiz/questions?page=3", "sess-1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for page 3, got %d", rec.Code)
	}
}

func TestQuizHandler_FullFlow(t *testing.T) {
	env := newTestEnv(t)
	h := NewQuizHandler(env.flows.Quiz, env.metrics, env.logger)

	rec := httptest.NewRecorder()
	h.Step1(rec, request(t, http.MethodPost, "/api/v1/quiz/steps/1", "sess-1", flow.QuizStep1{
		FirstName: "Tunde",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("step 1: expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	for page := 1; page <= 2; page++ {
		answers := make(map[string]string)
		for _, q := range env.flows.Quiz.Questions(page) {
			answers[q.ID] = "Yes"
		}

		rec = httptest.NewRecorder()
		target := "/api/v1/quiz/answers/" + strconv.Itoa(page)
		req := request(t, http.MethodPost, target, "sess-1", dto.QuizAnswersRequest{Answers: answers})
		h.Answers(rec, withURLParam(req, "page", strconv.Itoa(page)))
		if rec.Code != http.StatusOK {
			t.Fatalf("answers page %d: expected status 200, got %d: %s", page, rec.Code, rec.Body.String())
		}
	}

	rec = httptest.NewRecorder()
	h.Complete(rec, request(t, http.MethodPost, "/api/v1/quiz", "sess-1", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("complete: expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created dto.RecordResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	result := created.Data.(*model.QuizResult)
	// Answering everything Yes hits the one negatively keyed question.
	if result.Score != 26 {
		t.Errorf("expected score 26, got %d", result.Score)
	}
	if result.Personality != model.PersonalityPlanner {
		t.Errorf("expected Planner, got %s", result.Personality)
	}
}

func TestQuizHandler_AnswersOutOfOrder(t *testing.T) {
	env := newTestEnv(t)
	h := NewQuizHandler(env.flows.Quiz, env.metrics, env.logger)

	answers := make(map[string]string)
	for _, q := range env.flows.Quiz.Questions(2) {
		answers[q.ID] = "No"
	}

	rec := httptest.NewRecorder()
	req := request(t, http.MethodPost, "/api/v1/quiz/answers/2", "sess-1", dto.QuizAnswersRequest{Answers: answers})
	h.Answers(rec, withURLParam(req, "page", "2"))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409 for skipped pages, got %d", rec.Code)
	}
}

func TestLearningHandler_CoursesAndProgress(t *testing.T) {
	env := newTestEnv(t)
	h := NewLearningHandler(env.flows.Learning, env.logger)

	rec := httptest.NewRecorder()
	h.Courses(rec, request(t, http.MethodGet, "/api/v1/learning/courses", "sess-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("courses: expected status 200, got %d", rec.Code)
	}
	var courses []dto.CourseResponse
	if err := json.NewDecoder(rec.Body).Decode(&courses); err != nil {
		t.Fatalf("decode courses: %v", err)
	}
	if len(courses) == 0 {
		t.Fatal("expected at least one course")
	}

	course := courses[0]
	rec = httptest.NewRecorder()
	h.CompleteLesson(rec, request(t, http.MethodPost, "/api/v1/learning/lessons/complete", "sess-1", flow.CompleteLessonInput{
		CourseID: course.ID,
		LessonID: course.Lessons[0].ID,
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("complete lesson: expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Progress(rec, request(t, http.MethodGet, "/api/v1/learning/progress", "sess-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("progress: expected status 200, got %d", rec.Code)
	}
	var progress []dto.ProgressResponse
	if err := json.NewDecoder(rec.Body).Decode(&progress); err != nil {
		t.Fatalf("decode progress: %v", err)
	}
	if len(progress) != 1 || len(progress[0].LessonsCompleted) != 1 {
		t.Errorf("unexpected progress: %+v", progress)
	}
}

func TestLearningHandler_UnknownCourse(t *testing.T) {
	env := newTestEnv(t)
	h := NewLearningHandler(env.flows.Learning, env.logger)

	rec := httptest.NewRecorder()
	h.CompleteLesson(rec, request(t, http.MethodPost, "/api/v1/learning/lessons/complete", "sess-1", flow.CompleteLessonInput{
		CourseID: "nope",
		LessonID: "nope",
	}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Fields["course_id"] == "" {
		t.Errorf("expected course_id field message, got %v", resp.Fields)
	}
}
