package database

import "errors"

var (
	// ErrAccessDenied не различает "комнаты нет" и "не участник"
	ErrAccessDenied = errors.New("access denied")
	ErrEmptyMessage = errors.New("message content is empty")
)
