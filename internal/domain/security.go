package domain

import "time"

// CustomQuestionID selects a free-text question instead of a catalog entry.
const CustomQuestionID = "custom"

// AnswerStatusAnswered is the only status an answer row is written with.
const AnswerStatusAnswered = "answered"

// SecurityQuestion is a row of the shared question catalog.
type SecurityQuestion struct {
	ID        string    `json:"id" dynamodbav:"id"`
	Question  string    `json:"question" dynamodbav:"question"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}

// SecurityAnswer links a user to a catalog question. Answer holds a bcrypt hash.
type SecurityAnswer struct {
	ID         string    `json:"id" dynamodbav:"id"`
	QuestionID string    `json:"question_id" dynamodbav:"question_id"`
	Answer     string    `json:"-" dynamodbav:"answer"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	Status     string    `json:"status" dynamodbav:"status"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at"`
}

// FallbackQuestions is the static catalog used when a selected id is missing from the store.
var FallbackQuestions = []SecurityQuestion{
	{ID: "1", Question: "What is your mother's maiden name?"},
	{ID: "2", Question: "What was the name of your first pet?"},
	{ID: "3", Question: "In which city were you born?"},
	{ID: "4", Question: "What was your childhood nickname?"},
	{ID: "5", Question: "What is the name of your favorite childhood teacher?"},
}

// FallbackQuestion looks up id in FallbackQuestions.
func FallbackQuestion(id string) (SecurityQuestion, bool) {
	for _, q := range FallbackQuestions {
		if q.ID == id {
			return q, true
		}
	}
	return SecurityQuestion{}, false
}
