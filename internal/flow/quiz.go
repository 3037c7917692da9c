package flow

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/finwell/finwell/internal/model"
)

const quizDraftKey = "quiz"

// Answers per page; the quiz ships with two pages of five.
const quizPageSize = 5

//go:embed questions.yaml
var questionBank []byte

// QuizQuestion is one yes/no question from the bank.
type QuizQuestion struct {
	ID       string            `yaml:"id" json:"id"`
	Positive bool              `yaml:"positive" json:"positive"`
	Text     map[string]string `yaml:"text" json:"text"`
}

// Prompt returns the question text for lang, falling back to English.
func (q QuizQuestion) Prompt(lang string) string {
	if text, ok := q.Text[lang]; ok {
		return text
	}
	return q.Text["en"]
}

// QuizFlow runs the financial personality quiz: identity, two pages of
// five yes/no questions, then a scored result.
type QuizFlow struct {
	deps      Deps
	questions []QuizQuestion
}

// NewQuizFlow creates the quiz flow service, parsing the embedded
// question bank.
func NewQuizFlow(deps Deps) (*QuizFlow, error) {
	var bank struct {
		Questions []QuizQuestion `yaml:"questions"`
	}
	if err := yaml.Unmarshal(questionBank, &bank); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if len(bank.Questions) != 2*quizPageSize {
		return nil, fmt.Errorf("question bank has %d questions, want %d", len(bank.Questions), 2*quizPageSize)
	}
	return &QuizFlow{deps: deps, questions: bank.Questions}, nil
}

type quizDraft struct {
	FirstName string            `json:"first_name"`
	Email     string            `json:"email"`
	SendEmail bool              `json:"send_email"`
	Answers   map[string]string `json:"answers,omitempty"`
	Step      int               `json:"step"`
}

// QuizStep1 is the identity step.
type QuizStep1 struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	SendEmail bool   `json:"send_email"`
}

// Questions returns the question page (1 or 2) in presentation order.
func (f *QuizFlow) Questions(page int) []QuizQuestion {
	switch page {
	case 1:
		return f.questions[:quizPageSize]
	case 2:
		return f.questions[quizPageSize:]
	default:
		return nil
	}
}

// SaveStep1 stages identity and the email opt-in.
func (f *QuizFlow) SaveStep1(ctx context.Context, sessionID string, in QuizStep1) error {
	if in.FirstName == "" {
		return invalid("first_name", "first name is required")
	}
	if in.SendEmail && !validEmail(in.Email) {
		return invalid("email", "a valid email is required for the results")
	}

	draft := quizDraft{
		FirstName: in.FirstName,
		Email:     in.Email,
		SendEmail: in.SendEmail,
		Step:      1,
	}
	return saveDraft(ctx, f.deps, sessionID, quizDraftKey, draft)
}

// SaveAnswers stages one page of answers. Every question on the page
// must be answered Yes or No, and page 2 requires page 1 first.
func (f *QuizFlow) SaveAnswers(ctx context.Context, sessionID string, page int, answers map[string]string) error {
	questions := f.Questions(page)
	if questions == nil {
		return invalid("page", "unknown quiz page")
	}
	for _, q := range questions {
		answer := answers[q.ID]
		if answer != "Yes" && answer != "No" {
			return invalid(q.ID, "answer Yes or No")
		}
	}

	var draft quizDraft
	if err := loadDraft(ctx, f.deps.Drafts, sessionID, quizDraftKey, &draft); err != nil {
		return err
	}
	if draft.Step < page {
		return ErrDraftMissing
	}
	if draft.Answers == nil {
		draft.Answers = make(map[string]string, len(f.questions))
	}
	for _, q := range questions {
		draft.Answers[q.ID] = answers[q.ID]
	}
	draft.Step = page + 1
	return saveDraft(ctx, f.deps, sessionID, quizDraftKey, draft)
}

// Complete scores the answers, materializes the result and emails it
// when opted in.
func (f *QuizFlow) Complete(ctx context.Context, sessionID, lang string) (*model.Record, error) {
	var draft quizDraft
	if err := loadDraft(ctx, f.deps.Drafts, sessionID, quizDraftKey, &draft); err != nil {
		return nil, err
	}
	if draft.Step < 3 {
		return nil, ErrDraftMissing
	}

	result := &model.QuizResult{
		FirstName: draft.FirstName,
		SendEmail: draft.SendEmail,
		Answers:   make([]string, 0, len(f.questions)),
	}

	score := 0
	for _, q := range f.questions {
		answer := draft.Answers[q.ID]
		result.Answers = append(result.Answers, answer)
		good := answer == "Yes"
		if !q.Positive {
			good = answer == "No"
		}
		if good {
			score += 3
		} else {
			score--
		}
	}
	if score < 0 {
		score = 0
	}
	result.Score = score
	result.Personality = model.PersonalityForScore(score)
	result.Badges = f.badges(draft.Answers, score)
	result.Insights, result.Tips = adviceFor(result.Personality)

	rec := model.NewRecord(sessionID, result, draft.Email, lang)
	if err := f.deps.Store.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append quiz result: %w", err)
	}

	if draft.SendEmail && draft.Email != "" {
		notify(ctx, f.deps, &model.NotificationRequest{
			To:          draft.Email,
			TemplateKey: model.TemplateQuiz,
			Data: map[string]any{
				"first_name":  draft.FirstName,
				"score":       result.Score,
				"personality": string(result.Personality),
				"badges":      result.Badges,
			},
			Lang: lang,
		})
	}

	if err := f.deps.Drafts.DeleteDraft(ctx, sessionID, quizDraftKey); err != nil {
		f.deps.Logger.Warn("discard quiz draft", "error", err)
	}
	return rec, nil
}

func (f *QuizFlow) badges(answers map[string]string, score int) []model.QuizBadge {
	var badges []model.QuizBadge
	if score >= 21 {
		badges = append(badges, model.QuizBadge{
			Name:        "Top Planner",
			ColorClass:  "bg-primary",
			Description: "Scored in the planner range",
		})
	}
	if answers["save_regularly"] == "Yes" {
		badges = append(badges, model.QuizBadge{
			Name:        "Savings Star",
			ColorClass:  "bg-success",
			Description: "Saves part of every income",
		})
	}
	if answers["impulse_purchases"] == "No" {
		badges = append(badges, model.QuizBadge{
			Name:        "Disciplined Spender",
			ColorClass:  "bg-info",
			Description: "Avoids unplanned purchases",
		})
	}
	if answers["avoid_debt"] == "Yes" {
		badges = append(badges, model.QuizBadge{
			Name:        "Debt Dodger",
			ColorClass:  "bg-warning",
			Description: "Keeps everyday spending debt free",
		})
	}
	return badges
}

func adviceFor(p model.QuizPersonality) (insights, tips []string) {
	switch p {
	case model.PersonalityPlanner:
		return []string{"You plan ahead and track your money closely."},
			[]string{"Consider putting surplus cash into longer-term investments."}
	case model.PersonalitySaver:
		return []string{"You save consistently and avoid most money traps."},
			[]string{"Set a written budget to turn good habits into a plan."}
	case model.PersonalityBalanced:
		return []string{"You manage money reasonably but leave some gaps."},
			[]string{"Start tracking expenses weekly to find easy savings."}
	case model.PersonalitySpender:
		return []string{"Spending tends to outpace your planning."},
			[]string{"Automate a small transfer to savings on payday."}
	default:
		return []string{"Money decisions are mostly reactive right now."},
			[]string{"Begin with one habit: record every expense for a month."}
	}
}
