package models

import (
	"time"

	"gorm.io/datatypes"
)

// Question types supported by the grading engine.
const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeMultipleAnswer = "multiple_answer"
)

// Exam represents a published assessment belonging to a course.
type Exam struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	CourseID        string     `gorm:"size:64;index;not null" json:"course_id"`
	DurationMinutes int        `gorm:"default:60" json:"duration_minutes"`
	TotalQuestions  int        `gorm:"default:0" json:"total_questions"`
	PassingScore    int        `gorm:"default:70" json:"passing_score"`
	Active          bool       `gorm:"default:true" json:"active"`
	Published       bool       `gorm:"default:false" json:"published"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Questions       []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions,omitempty"`
}

// Question is a single exam question with its canonical answer set.
type Question struct {
	ID             uint                        `gorm:"primaryKey" json:"id"`
	ExamID         uint                        `gorm:"not null;index" json:"exam_id"`
	Text           string                      `gorm:"type:text;not null" json:"text"`
	Type           string                      `gorm:"size:32;not null;default:multiple_choice" json:"type"`
	Options        datatypes.JSONSlice[string] `json:"options"`
	CorrectAnswers datatypes.JSONSlice[string] `json:"correct_answers,omitempty"`
	Points         int                         `gorm:"default:1" json:"points"`
	Explanation    string                      `gorm:"type:text" json:"explanation,omitempty"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}
