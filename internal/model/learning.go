package model

// LearningProgress tracks a user's position in one course. There is at
// most one progress record per (owner, course) pair; updates replace
// the payload in place.
type LearningProgress struct {
	CourseID         string         `json:"course_id"`
	LessonsCompleted []string       `json:"lessons_completed"`
	QuizScores       map[string]int `json:"quiz_scores,omitempty"`
	CurrentLesson    string         `json:"current_lesson,omitempty"`
}

// PayloadKind implements Payload.
func (l *LearningProgress) PayloadKind() Kind { return KindLearningProgress }

// CompleteLesson marks a lesson finished, once.
func (l *LearningProgress) CompleteLesson(lessonID string) {
	for _, done := range l.LessonsCompleted {
		if done == lessonID {
			return
		}
	}
	l.LessonsCompleted = append(l.LessonsCompleted, lessonID)
	l.CurrentLesson = lessonID
}

// RecordQuizScore stores the best score for a course quiz.
func (l *LearningProgress) RecordQuizScore(quizID string, score int) {
	if l.QuizScores == nil {
		l.QuizScores = make(map[string]int)
	}
	if prev, ok := l.QuizScores[quizID]; !ok || score > prev {
		l.QuizScores[quizID] = score
	}
}
