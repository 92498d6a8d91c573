package domain

import "errors"

var (
	ErrStorageUnavailable = errors.New("notification storage unavailable")
	ErrSurveyNotFound     = errors.New("survey not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrTooManyConnections = errors.New("too many connections for user")
	ErrUnknownAlarmType   = errors.New("unknown alarm type")
)
