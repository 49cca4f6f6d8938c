package domain

import (
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    Status
		wantErr bool
	}{
		{"scheduled", StatusScheduled, false},
		{"IN_PROGRESS", StatusInProgress, false},
		{"Ready", StatusReady, false},
		{"completed", StatusCompleted, false},
		{"no_show", StatusNoShow, false},
		{"canceled", StatusCanceled, false},
		{"cancelled", "", true},
		{"", "", true},
		{"done", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStatus(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusScheduled, StatusInProgress},
		{StatusScheduled, StatusNoShow},
		{StatusScheduled, StatusCanceled},
		{StatusInProgress, StatusReady},
		{StatusInProgress, StatusCompleted},
		{StatusInProgress, StatusCanceled},
		{StatusReady, StatusCompleted},
		{StatusReady, StatusInProgress},
	}
	for _, tt := range allowed {
		if !tt.from.CanTransition(tt.to) {
			t.Errorf("%s -> %s should be permitted", tt.from, tt.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusScheduled, StatusReady},
		{StatusScheduled, StatusCompleted},
		{StatusInProgress, StatusScheduled},
		{StatusInProgress, StatusNoShow},
		{StatusReady, StatusScheduled},
		{StatusReady, StatusCanceled},
		{StatusCompleted, StatusScheduled},
		{StatusCompleted, StatusInProgress},
		{StatusNoShow, StatusScheduled},
		{StatusCanceled, StatusScheduled},
	}
	for _, tt := range denied {
		if tt.from.CanTransition(tt.to) {
			t.Errorf("%s -> %s should be denied", tt.from, tt.to)
		}
	}
}

func TestCanTransition_SameStatusIsRepositioning(t *testing.T) {
	for _, s := range AllStatuses {
		if !s.CanTransition(s) {
			t.Errorf("%s -> %s repositioning should be permitted", s, s)
		}
	}
	if Status("bogus").CanTransition(Status("bogus")) {
		t.Error("unknown status must not self-transition")
	}
}

func TestTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusScheduled:  false,
		StatusInProgress: false,
		StatusReady:      false,
		StatusCompleted:  true,
		StatusNoShow:     true,
		StatusCanceled:   true,
	}
	for s, want := range terminal {
		if got := s.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, want)
		}
	}
}

func TestNewView_AllColumnsPresent(t *testing.T) {
	v := NewView(time.Now())

	if len(v.Columns) != len(AllStatuses) {
		t.Fatalf("Columns = %d, want %d", len(v.Columns), len(AllStatuses))
	}
	for _, s := range AllStatuses {
		col, ok := v.Columns[s]
		if !ok {
			t.Fatalf("column %s missing", s)
		}
		if col.Items == nil {
			t.Errorf("column %s items should be an empty slice, not nil", s)
		}
	}
}

func TestView_Fingerprint(t *testing.T) {
	build := func(versionA int64) *View {
		v := NewView(time.Now())
		v.Add(Card{ID: "a1", Status: StatusScheduled, Version: versionA})
		v.Add(Card{ID: "a2", Status: StatusInProgress, Version: 3})
		return v
	}

	if build(1).Fingerprint() != build(1).Fingerprint() {
		t.Error("identical views must fingerprint identically")
	}
	if build(1).Fingerprint() == build(2).Fingerprint() {
		t.Error("a version bump must change the fingerprint")
	}

	moved := NewView(time.Now())
	moved.Add(Card{ID: "a1", Status: StatusInProgress, Version: 1})
	moved.Add(Card{ID: "a2", Status: StatusInProgress, Version: 3})
	if build(1).Fingerprint() == moved.Fingerprint() {
		t.Error("moving a card between columns must change the fingerprint")
	}

	if NewView(time.Now()).Fingerprint() != NewView(time.Now()).Fingerprint() {
		t.Error("empty views must fingerprint identically")
	}
}

func TestView_AddFoldsTotals(t *testing.T) {
	v := NewView(time.Now())

	total := int64(12500)
	v.Add(Card{ID: "a1", Status: StatusScheduled, TotalAmountCents: &total})
	v.Add(Card{ID: "a2", Status: StatusScheduled})
	v.Add(Card{ID: "a3", Status: StatusReady, TotalAmountCents: &total})

	scheduled := v.Columns[StatusScheduled]
	if scheduled.Count != 2 {
		t.Errorf("scheduled.Count = %d, want 2", scheduled.Count)
	}
	if scheduled.TotalAmountCents != 12500 {
		t.Errorf("scheduled.TotalAmountCents = %d, want 12500", scheduled.TotalAmountCents)
	}
	if v.Columns[StatusReady].Count != 1 {
		t.Errorf("ready.Count = %d, want 1", v.Columns[StatusReady].Count)
	}
}
