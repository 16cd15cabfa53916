package email

import (
	"strings"
	"testing"
	"time"
)

func sampleComplaint() ComplaintEmail {
	return ComplaintEmail{
		ComplaintID:   "3f2b8c1e-9a4d-4e7f-8b21-5c6d7e8f9a0b",
		Title:         "Uncollected Garbage Near Residence",
		Description:   "Garbage has not been collected for 3 days <near> my house.",
		Department:    "Sanitation",
		SeverityBand:  "Medium",
		SeverityScore: 0.7,
		Latitude:      12.9716,
		Longitude:     77.5946,
		TrackingURL:   "https://example.org/api/v1/track/abc",
		SubmittedAt:   time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestRenderComplaintTemplate(t *testing.T) {
	html, err := renderEmailTemplate("complaint_submitted.html", newComplaintEmailData(sampleComplaint()))
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		"Uncollected Garbage Near Residence",
		"Sanitation",
		"Medium (0.7)",
		"12.971600, 77.594600",
		"https://example.org/api/v1/track/abc",
		"2026-03-01 09:30 UTC",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered email missing %q", want)
		}
	}
	if strings.Contains(html, "<near>") {
		t.Fatalf("description must be HTML-escaped")
	}
}

func TestRenderComplaintText(t *testing.T) {
	text := renderComplaintText(newComplaintEmailData(sampleComplaint()))
	if !strings.Contains(text, "Complaint ID: 3f2b8c1e-9a4d-4e7f-8b21-5c6d7e8f9a0b") {
		t.Fatalf("text body missing id:\n%s", text)
	}
	if !strings.Contains(text, "View complaint: https://example.org/api/v1/track/abc") {
		t.Fatalf("text body missing tracking link:\n%s", text)
	}
}

func TestComplaintSubject(t *testing.T) {
	got := complaintSubject(sampleComplaint())
	want := "[Sanitation] New medium-severity complaint: Uncollected Garbage Near Residence"
	if got != want {
		t.Fatalf("subject = %q, want %q", got, want)
	}
}
