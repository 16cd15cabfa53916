package enhance

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/platform/logger"
)

type testCompleter struct {
	resp string
	err  error
}

func (c *testCompleter) Complete(context.Context, string) (string, error) {
	return c.resp, c.err
}

var blr = &domain.Coordinates{Latitude: 12.9716, Longitude: 77.5946}

func TestEnhance_PrimaryAppendsLocation(t *testing.T) {
	c := &testCompleter{resp: "PROFESSIONAL_TITLE: Water Supply - Burst Pipe on 5th Cross\nENHANCED_DESCRIPTION: A water main has burst and is flooding the lane."}
	got := New(c, time.Second, logger.New("development")).Enhance(context.Background(), "pipe burst", domain.DepartmentWater, blr)

	if got.Source != domain.SourcePrimary || got.Title != "Water Supply - Burst Pipe on 5th Cross" {
		t.Fatalf("unexpected enhancement %+v", got)
	}
	want := "A water main has burst and is flooding the lane.\n\nLocation: 12.971600, 77.594600\nGoogle Maps: https://maps.google.com/?q=12.971600,77.594600"
	if got.Description != want {
		t.Fatalf("unexpected description:\n%s", got.Description)
	}
}

func TestEnhance_PrimaryDoesNotDuplicateLocation(t *testing.T) {
	c := &testCompleter{resp: "PROFESSIONAL_TITLE: Roads - Pothole\nENHANCED_DESCRIPTION: Pothole.\nLocation: 12.971600, 77.594600"}
	got := New(c, time.Second, logger.New("development")).Enhance(context.Background(), "pothole", domain.DepartmentPublicWorks, blr)
	if strings.Count(got.Description, "Location:") != 1 {
		t.Fatalf("expected a single location line, got:\n%s", got.Description)
	}
}

func TestEnhance_TitleIsClipped(t *testing.T) {
	long := strings.Repeat("Very Long Title ", 10)
	c := &testCompleter{resp: "PROFESSIONAL_TITLE: " + long + "\nENHANCED_DESCRIPTION: ok"}
	got := New(c, time.Second, logger.New("development")).Enhance(context.Background(), "x", domain.DepartmentGeneral, nil)
	if utf8.RuneCountInString(got.Title) > MaxTitleRunes {
		t.Fatalf("title not clipped: %d runes", utf8.RuneCountInString(got.Title))
	}
}

func TestEnhance_FallbackOnFailure(t *testing.T) {
	c := &testCompleter{err: errors.New("model overloaded")}
	got := New(c, time.Second, logger.New("development")).Enhance(context.Background(), "kooda pada hai", domain.DepartmentSanitation, blr)

	if got.Source != domain.SourceFallback {
		t.Fatalf("expected fallback, got %+v", got)
	}
	if got.Title != "Waste Management - Garbage Collection Issue" {
		t.Fatalf("unexpected title %q", got.Title)
	}
	want := "Citizen complaint regarding: kooda pada hai\n\nLocation: 12.971600, 77.594600\nGoogle Maps: https://maps.google.com/?q=12.971600,77.594600\n\nThis complaint has been logged for Sanitation department review and action."
	if got.Description != want {
		t.Fatalf("unexpected description:\n%s", got.Description)
	}
}

func TestFallback_DefaultTitleUsesDepartment(t *testing.T) {
	got := Fallback("bus driver was rude", domain.DepartmentTransport, nil)
	if got.Title != "Transport - Citizen Complaint" {
		t.Fatalf("unexpected title %q", got.Title)
	}
	if !strings.HasSuffix(got.Description, "logged for Transport department review and action.") {
		t.Fatalf("unexpected description %q", got.Description)
	}

	got = Fallback("something odd", "", nil)
	if got.Title != "General - Citizen Complaint" || !strings.Contains(got.Description, "appropriate department") {
		t.Fatalf("unexpected unset-department fallback %+v", got)
	}
}

func TestParseResponse_MissingFieldIsError(t *testing.T) {
	if _, err := ParseResponse("PROFESSIONAL_TITLE: only a title", nil); err == nil {
		t.Fatalf("expected error for missing description")
	}
}
