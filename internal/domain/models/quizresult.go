// internal/domain/models/quizresult.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Quiz outcome statuses.
const (
	QuizPassed = "passed"
	QuizFailed = "failed"
)

// DefaultQuizMaxAttempts is recorded on a result when the client does not
// supply one.
const DefaultQuizMaxAttempts = 3

// QuizAnswer records one answered question within a quiz attempt.
type QuizAnswer struct {
	QuestionID     string `bson:"question_id" json:"questionId"`
	SelectedAnswer string `bson:"selected_answer" json:"selectedAnswer"`
	Correct        bool   `bson:"correct" json:"isCorrect"`
}

// QuizResult is a student's scored quiz attempt for a course. A student may
// hold at most one result per course; the store enforces this with a unique
// (student_id, course_id) index.
//
// The quiz question banks live in the client; the server only records
// outcomes.
type QuizResult struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudentID      primitive.ObjectID `bson:"student_id" json:"studentId"`
	CourseID       string             `bson:"course_id" json:"courseId"`
	CourseName     string             `bson:"course_name" json:"courseName"`
	Score          int                `bson:"score" json:"score"`
	TotalQuestions int                `bson:"total_questions" json:"totalQuestions"`
	Percentage     float64            `bson:"percentage" json:"percentage"`
	Status         string             `bson:"status" json:"status"` // passed | failed
	SubmittedAt    time.Time          `bson:"submitted_at" json:"submittedAt"`
	TimeSpent      int                `bson:"time_spent" json:"timeSpent"` // seconds
	AttemptNumber  int                `bson:"attempt_number" json:"attemptNumber"`
	MaxAttempts    int                `bson:"max_attempts" json:"maxAttempts"`
	Answers        []QuizAnswer       `bson:"answers,omitempty" json:"answers"`
}
