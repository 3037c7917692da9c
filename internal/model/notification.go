package model

// TemplateKey selects an email template and subject pair.
type TemplateKey string

const (
	TemplateFinancialHealth TemplateKey = "financial_health"
	TemplateBudget          TemplateKey = "budget"
	TemplateQuiz            TemplateKey = "quiz"
	TemplateBillReminder    TemplateKey = "bill_reminder"
	TemplateNetWorth        TemplateKey = "net_worth"
	TemplateEmergencyFund   TemplateKey = "emergency_fund"
	TemplateLessonCompleted TemplateKey = "learning_hub_lesson_completed"
)

// NotificationRequest describes one email to deliver. It is transient:
// produced by flows and the reminder batch, consumed once by the
// dispatcher, and never retried past the dispatcher's own
// retry/fallback window.
type NotificationRequest struct {
	To          string
	Subject     string
	TemplateKey TemplateKey
	Data        map[string]any
	Lang        string
}
