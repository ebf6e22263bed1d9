package utils

import (
	"testing"
	"time"
)

func TestValidatePriority(t *testing.T) {
	tests := []struct {
		name     string
		priority int
		wantErr  bool
	}{
		{"valid priority 0", 0, false},
		{"valid priority 1", 1, false},
		{"valid priority 5", 5, false},
		{"valid priority 9", 9, false},
		{"invalid priority -1", -1, true},
		{"invalid priority 10", 10, true},
		{"invalid priority 100", 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePriority(tt.priority)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePriority(%d) error = %v, wantErr %v", tt.priority, err, tt.wantErr)
			}
		})
	}
}

func ptrTime(t time.Time) *time.Time {
	return &t
}

func TestParseDateTimeFlag(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    *time.Time
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"date and time", "2026-01-15 09:30", ptrTime(time.Date(2026, 1, 15, 9, 30, 0, 0, time.Local)), false},
		{"T separator", "2026-01-15T09:30", ptrTime(time.Date(2026, 1, 15, 9, 30, 0, 0, time.Local)), false},
		{"bare date", "2026-01-15", ptrTime(time.Date(2026, 1, 15, 0, 0, 0, 0, time.Local)), false},
		{"rfc3339", "2026-01-15T09:30:00Z", ptrTime(time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)), false},
		{"garbage", "tomorrow-ish", nil, true},
		{"bad hour", "2026-01-15 25:00", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateTimeFlag(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDateTimeFlag(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ParseDateTimeFlag(%q) = %v, want %v", tt.value, got, tt.want)
			}
			if got != nil && !got.Equal(*tt.want) {
				t.Errorf("ParseDateTimeFlag(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestValidateStatus(t *testing.T) {
	for _, s := range TaskStatuses {
		if err := ValidateStatus(s); err != nil {
			t.Errorf("ValidateStatus(%q) = %v", s, err)
		}
	}
	if err := ValidateStatus("COMPLETED"); err == nil {
		t.Error("ValidateStatus should reject unknown statuses")
	}
}
