package email

import (
	"fmt"
	"strings"
)

const subjectComplaintFmt = "[%s] New %s complaint: %s"

func complaintSubject(c ComplaintEmail) string {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		title = "Citizen report"
	}
	band := c.SeverityBand
	if band == "" {
		band = "Medium"
	}
	return fmt.Sprintf(subjectComplaintFmt, c.Department, strings.ToLower(band)+"-severity", title)
}
