// Package models defines core data structures for students, sessions, and conversations.
package models

import "time"

// StudentRecord is the consolidated per-student document aggregated from the
// upstream record provider. Every category is independently optional: a nil
// category means the corresponding fetch failed or returned nothing, and never
// invalidates the record as a whole.
type StudentRecord struct {
	StudentID string    `json:"studentId"`
	Name      string    `json:"name"`
	LastLogin time.Time `json:"lastLogin"`

	Profile     any `json:"profile,omitempty"`
	Attendance  any `json:"attendance,omitempty"`
	Enrollment  any `json:"enrollment,omitempty"`
	Scores      any `json:"scores,omitempty"`
	Assignments any `json:"assignments,omitempty"`
	ExamList    any `json:"examlist,omitempty"`
}

// Categories returns the six record categories with their display labels,
// in a fixed order. Used when serializing the record into index chunks.
func (r *StudentRecord) Categories() []Category {
	return []Category{
		{Label: "Profile", Data: r.Profile},
		{Label: "Attendance", Data: r.Attendance},
		{Label: "Enrollment", Data: r.Enrollment},
		{Label: "Scores", Data: r.Scores},
		{Label: "Assignments", Data: r.Assignments},
		{Label: "Exam List", Data: r.ExamList},
	}
}

// Category is a labeled record category payload.
type Category struct {
	Label string
	Data  any
}
