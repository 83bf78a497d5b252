package models

import "time"

const NotificationTypeAtUser = "at_user"

type Notification struct {
	ID         string           `json:"id"`
	Type       string           `json:"notification_type"`
	Info       NotificationInfo `json:"info"`
	ActorID    *string          `json:"actor_id,omitempty"`
	TargetID   string           `json:"target_id"`
	TargetKind ContentKind      `json:"target_type"`
	Receivers  []string         `json:"receiver_ids"`
	Created    time.Time        `json:"created"`
}

type NotificationInfo struct {
	ContentID     string      `json:"content_id"`
	ContentType   ContentKind `json:"content_type"`
	ThreadTitle   string      `json:"thread_title"`
	ActorUsername *string     `json:"actor_username,omitempty"`
}
