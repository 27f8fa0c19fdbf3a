// Package domain holds the notification entity created by the event
// consumer and read back through the visibility-scoped API.
package domain

import (
	"fmt"
	"time"
)

// Notification is an in-app notification fanned out to every tenant in
// VisibleTo. RelatedEntity points at the domain record (e.g. a customer ID)
// the notification is about, when there is one.
type Notification struct {
	ID            string
	EventType     string
	Title         string
	Message       string
	VisibleTo     []string
	RelatedEntity *string
	CreatedAt     time.Time
	ReadBy        []string
}

// NewNotification validates and constructs a notification.
func NewNotification(id, eventType, title, message string, visibleTo []string, relatedEntity *string, now time.Time) (*Notification, error) {
	if eventType == "" {
		return nil, fmt.Errorf("event type is required")
	}
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if message == "" {
		return nil, fmt.Errorf("message is required")
	}

	return &Notification{
		ID:            id,
		EventType:     eventType,
		Title:         title,
		Message:       message,
		VisibleTo:     visibleTo,
		RelatedEntity: relatedEntity,
		CreatedAt:     now,
		ReadBy:        []string{},
	}, nil
}

// IsReadBy reports whether userID has already marked the notification read.
func (n *Notification) IsReadBy(userID string) bool {
	for _, u := range n.ReadBy {
		if u == userID {
			return true
		}
	}
	return false
}

// MarkReadBy appends userID to ReadBy if it is not already present. It is
// idempotent: marking the same notification read twice by the same user
// leaves ReadBy unchanged.
func (n *Notification) MarkReadBy(userID string) {
	if n.IsReadBy(userID) {
		return
	}
	n.ReadBy = append(n.ReadBy, userID)
}
