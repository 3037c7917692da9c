package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"regexp"

	"github.com/finwell/finwell/internal/i18n"
	"github.com/finwell/finwell/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// subjectKeys maps each template key to its translated subject line.
var subjectKeys = map[model.TemplateKey]string{
	model.TemplateFinancialHealth: "financial_health_financial_health_report",
	model.TemplateBudget:          "budget_plan_summary",
	model.TemplateQuiz:            "quiz_results_summary",
	model.TemplateBillReminder:    "bill_payment_reminder",
	model.TemplateNetWorth:        "net_worth_net_worth_summary",
	model.TemplateEmergencyFund:   "emergency_fund_email_subject",
	model.TemplateLessonCompleted: "learning_hub_lesson_completed_subject",
}

// templateFiles maps template key and provider name to a template
// file. A provider without its own entry falls back to the default.
var templateFiles = map[model.TemplateKey]map[string]string{
	model.TemplateFinancialHealth: {"default": "financial_health.html"},
	model.TemplateBudget:          {"default": "budget.html"},
	model.TemplateQuiz:            {"default": "quiz.html"},
	model.TemplateBillReminder: {
		"default": "bill_reminder.html",
		"smtp":    "bill_reminder_smtp.html",
	},
	model.TemplateNetWorth:        {"default": "net_worth.html"},
	model.TemplateEmergencyFund:   {"default": "emergency_fund.html"},
	model.TemplateLessonCompleted: {"default": "lesson_completed.html"},
}

// Renderer renders email subjects and HTML bodies from the embedded
// template set.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded template set once at startup.
// Missing data keys are an execution error so Render can detect and
// blank them instead of leaking "<no value>" into an email body.
func NewRenderer() (*Renderer, error) {
	t, err := template.New("email").Option("missingkey=error").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

// Subject returns the translated subject line for a template key.
func (r *Renderer) Subject(key model.TemplateKey, lang string) (string, error) {
	subjectKey, ok := subjectKeys[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, key)
	}
	return i18n.T(lang, subjectKey), nil
}

// Render produces the HTML body for a template key, using the
// provider-specific variant when one is registered.
func (r *Renderer) Render(key model.TemplateKey, provider, lang string, data map[string]any) (string, error) {
	files, ok := templateFiles[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, key)
	}
	name, ok := files[provider]
	if !ok {
		name = files["default"]
	}

	if data == nil {
		data = map[string]any{}
	}
	payload := make(map[string]any, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}
	payload["lang"] = i18n.Normalize(lang)

	// A template may reference keys the caller never set. Blank each
	// missing key and re-render, bounded so a bad template cannot loop.
	for i := 0; i <= maxMissingKeyFills; i++ {
		var buf bytes.Buffer
		err := r.templates.ExecuteTemplate(&buf, name, payload)
		if err == nil {
			return buf.String(), nil
		}
		missing := missingKeyRe.FindStringSubmatch(err.Error())
		if missing == nil || i == maxMissingKeyFills {
			return "", fmt.Errorf("render template %s: %w", name, err)
		}
		payload[missing[1]] = ""
	}
	return "", fmt.Errorf("render template %s: retries exhausted", name)
}

// maxMissingKeyFills bounds how many absent keys one render will
// tolerate before giving up.
const maxMissingKeyFills = 10

var missingKeyRe = regexp.MustCompile(`map has no entry for key "([^"]+)"`)
