package utils

import (
	"time"
)

// Task statuses accepted by the remote tasks table
var TaskStatuses = []string{"todo", "in_progress", "done"}

// ValidatePriority checks if priority is within valid range (0-9)
func ValidatePriority(priority int) error {
	if priority < 0 || priority > 9 {
		return ErrInvalidPriority(priority)
	}
	return nil
}

// ValidateStatus checks a task status against TaskStatuses
func ValidateStatus(status string) error {
	for _, s := range TaskStatuses {
		if s == status {
			return nil
		}
	}
	return ErrInvalidStatus(status, TaskStatuses)
}

// dateTimeLayouts are tried in order by ParseDateTimeFlag
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDateTimeFlag parses a reminder or due time. It accepts RFC 3339,
// "YYYY-MM-DD HH:MM" in local time, or a bare date (midnight local).
// Returns nil for empty strings.
func ParseDateTimeFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, ErrInvalidDate(value)
}
