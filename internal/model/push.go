package model

import "time"

type PushSubscription struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"group_id"`
	Label     string    `json:"label"`
	Endpoint  string    `json:"-"`
	P256dhKey string    `json:"-"`
	AuthKey   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationType string

const (
	NotifDaySubmitted   NotificationType = "day_submitted"
	NotifDayValidated   NotificationType = "day_validated"
	NotifWindowReminder NotificationType = "window_reminder"
)
