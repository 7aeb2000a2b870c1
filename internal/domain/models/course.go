// internal/domain/models/course.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course difficulty levels.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Enrollment statuses.
const (
	EnrollmentActive    = "active"
	EnrollmentInactive  = "inactive"
	EnrollmentCompleted = "completed"
)

// DefaultMaxStudents is the enrollment cap applied when a course is created
// without one.
const DefaultMaxStudents = 100

// Enrollment records one student's membership in a course.
type Enrollment struct {
	StudentID  primitive.ObjectID `bson:"student_id" json:"studentId"`
	EnrolledAt time.Time          `bson:"enrolled_at" json:"enrolledAt"`
	Status     string             `bson:"status" json:"status"`
}

// Course groups notes and quiz results under an instructor.
// Code is unique and stored uppercase.
type Course struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	Code         string             `bson:"code" json:"code"`
	InstructorID primitive.ObjectID `bson:"instructor_id" json:"instructorId"`
	Enrollments  []Enrollment       `bson:"enrollments,omitempty" json:"students"`
	Category     string             `bson:"category" json:"category"`
	Level        string             `bson:"level" json:"level"`
	Thumbnail    string             `bson:"thumbnail,omitempty" json:"thumbnail"`
	IsActive     bool               `bson:"is_active" json:"isActive"`
	MaxStudents  int                `bson:"max_students" json:"maxStudents"`
	StartDate    time.Time          `bson:"start_date" json:"startDate"`
	EndDate      time.Time          `bson:"end_date,omitempty" json:"endDate"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsEnrolled reports whether studentID already has an enrollment record.
func (c *Course) IsEnrolled(studentID primitive.ObjectID) bool {
	for _, e := range c.Enrollments {
		if e.StudentID == studentID {
			return true
		}
	}
	return false
}

// IsFull reports whether the course has reached its enrollment cap.
func (c *Course) IsFull() bool {
	return len(c.Enrollments) >= c.MaxStudents
}
