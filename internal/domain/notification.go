package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyNotificationTenant is returned when a notification has no tenant.
var ErrEmptyNotificationTenant = errors.New("notification tenant ID cannot be empty")

// Notification is an in-app message for a recruiter, written by the
// notification fan-out stage. UserID nil means every recruiter in the
// tenant gets a copy.
type Notification struct {
	ID        uuid.UUID         `json:"id"`
	TenantID  uuid.UUID         `json:"tenant_id"`
	UserID    *uuid.UUID        `json:"user_id,omitempty"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewNotification creates an unread notification for the given tenant.
func NewNotification(tenantID uuid.UUID, userID *uuid.UUID, notifType, title, message string, data map[string]string) (*Notification, error) {
	if tenantID == uuid.Nil {
		return nil, ErrEmptyNotificationTenant
	}
	return &Notification{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}, nil
}
