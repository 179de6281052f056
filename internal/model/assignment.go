package model

import "time"

// Assignment binds one task template to one child with scheduling bounds.
// The recurrence fields, when set, override the template's recurrence for
// this assignment only. Dates are calendar days at midnight UTC.
type Assignment struct {
	ID             int64      `json:"id"`
	ChildID        int64      `json:"child_id"`
	TemplateID     int64      `json:"template_id"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	Active         bool       `json:"active"`
	Recurrence     string     `json:"recurrence,omitempty"`
	RecurrenceDays []int      `json:"recurrence_days,omitempty"`
	IntervalStart  *time.Time `json:"interval_start,omitempty"`
	IntervalDays   int        `json:"interval_days,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
