package event

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{"12:15", TimeOfDay{12, 15}, false},
		{"9:05", TimeOfDay{9, 5}, false},
		{"12:15:00", TimeOfDay{12, 15}, false},
		{"00:00", TimeOfDay{0, 0}, false},
		{"23:59", TimeOfDay{23, 59}, false},
		{"24:00", TimeOfDay{}, true},
		{"12:60", TimeOfDay{}, true},
		{"noon", TimeOfDay{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTimeOfDayFormatting(t *testing.T) {
	tod := TimeOfDay{Hour: 9, Minute: 5}

	if got := tod.String(); got != "09:05" {
		t.Errorf("String() = %q, want 09:05", got)
	}
	if got := tod.ISO(); got != "09:05:00" {
		t.Errorf("ISO() = %q, want 09:05:00", got)
	}
	if got := tod.Minutes(); got != 545 {
		t.Errorf("Minutes() = %d, want 545", got)
	}
}

func TestTimeOfDayOn(t *testing.T) {
	date := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	got := TimeOfDay{Hour: 12, Minute: 15}.On(date)
	want := time.Date(2026, 2, 23, 12, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("On() = %v, want %v", got, want)
	}
}

func TestTimeOfDayScan(t *testing.T) {
	var tod TimeOfDay
	if err := tod.Scan(time.Date(0, 1, 1, 14, 30, 0, 0, time.UTC)); err != nil {
		t.Fatalf("scan time.Time: %v", err)
	}
	if tod != (TimeOfDay{14, 30}) {
		t.Errorf("scanned %v, want 14:30", tod)
	}

	if err := tod.Scan([]byte("08:45:00")); err != nil {
		t.Fatalf("scan []byte: %v", err)
	}
	if tod != (TimeOfDay{8, 45}) {
		t.Errorf("scanned %v, want 08:45", tod)
	}

	if err := tod.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
}

func TestTimeOfDayValue(t *testing.T) {
	v, err := TimeOfDay{Hour: 12, Minute: 15}.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}
	if v != "12:15:00" {
		t.Errorf("Value() = %v, want 12:15:00", v)
	}
}
