package sqlite

import "errors"

var (
	// ErrInvalidNotificationID indicates an empty notification ID.
	ErrInvalidNotificationID = errors.New("invalid notification ID")
	// ErrNotificationNotFound indicates that no notification matched.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrChannelNotFound indicates that a channel is not stored.
	ErrChannelNotFound = errors.New("channel not found")
)
