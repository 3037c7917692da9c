package model

// QuizPersonality buckets a quiz score into a money personality.
type QuizPersonality string

const (
	PersonalityPlanner  QuizPersonality = "Planner"
	PersonalitySaver    QuizPersonality = "Saver"
	PersonalityBalanced QuizPersonality = "Balanced"
	PersonalitySpender  QuizPersonality = "Spender"
	PersonalityAvoider  QuizPersonality = "Avoider"
)

// QuizBadge is an awarded quiz badge with display metadata.
type QuizBadge struct {
	Name        string `json:"name"`
	ColorClass  string `json:"color_class"`
	Description string `json:"description"`
}

// QuizResult stores a completed quiz with its derived personality.
type QuizResult struct {
	FirstName   string          `json:"first_name,omitempty"`
	SendEmail   bool            `json:"send_email"`
	Answers     []string        `json:"answers"`
	Score       int             `json:"score"`
	Personality QuizPersonality `json:"personality"`
	Badges      []QuizBadge     `json:"badges,omitempty"`
	Insights    []string        `json:"insights,omitempty"`
	Tips        []string        `json:"tips,omitempty"`
}

// PayloadKind implements Payload.
func (q *QuizResult) PayloadKind() Kind { return KindQuizResult }

// PersonalityForScore maps a score to its personality bucket.
func PersonalityForScore(score int) QuizPersonality {
	switch {
	case score >= 21:
		return PersonalityPlanner
	case score >= 13:
		return PersonalitySaver
	case score >= 7:
		return PersonalityBalanced
	case score >= 3:
		return PersonalitySpender
	default:
		return PersonalityAvoider
	}
}
