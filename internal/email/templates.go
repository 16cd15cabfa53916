package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type complaintEmailData struct {
	baseEmailData
	ComplaintID  string
	ShortID      string
	Description  string
	Department   string
	SeverityBand string
	Severity     string
	Coordinates  string
	MapURL       string
	HasImage     bool
	SubmittedAt  string
}

func newComplaintEmailData(c ComplaintEmail) complaintEmailData {
	shortID := c.ComplaintID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	coords := fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude)

	data := complaintEmailData{
		baseEmailData: baseEmailData{
			Title:      "New complaint " + shortID,
			Heading:    c.Title,
			Subheading: c.Department + " department",
		},
		ComplaintID:  c.ComplaintID,
		ShortID:      shortID,
		Description:  c.Description,
		Department:   c.Department,
		SeverityBand: c.SeverityBand,
		Severity:     fmt.Sprintf("%.1f", c.SeverityScore),
		Coordinates:  coords,
		MapURL:       fmt.Sprintf("https://www.google.com/maps?q=%.6f,%.6f", c.Latitude, c.Longitude),
		HasImage:     c.HasImage,
	}
	if !c.SubmittedAt.IsZero() {
		data.SubmittedAt = c.SubmittedAt.UTC().Format("2006-01-02 15:04 MST")
	}
	if c.TrackingURL != "" {
		data.CTALabel = "View complaint"
		data.CTAURL = c.TrackingURL
	}
	return data
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderComplaintText(d complaintEmailData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", d.Heading)
	fmt.Fprintf(&b, "Complaint ID: %s\n", d.ComplaintID)
	fmt.Fprintf(&b, "Department: %s\n", d.Department)
	fmt.Fprintf(&b, "Severity: %s (%s)\n", d.SeverityBand, d.Severity)
	fmt.Fprintf(&b, "Location: %s\n%s\n", d.Coordinates, d.MapURL)
	if d.SubmittedAt != "" {
		fmt.Fprintf(&b, "Submitted: %s\n", d.SubmittedAt)
	}
	if d.HasImage {
		b.WriteString("Photo evidence: attached to the record\n")
	}
	fmt.Fprintf(&b, "\n%s\n", d.Description)
	if d.CTAURL != "" {
		fmt.Fprintf(&b, "\n%s: %s\n", d.CTALabel, d.CTAURL)
	}
	return b.String()
}
