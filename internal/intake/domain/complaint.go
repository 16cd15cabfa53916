package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is returned when no registered user matches a sender.
	ErrUserNotFound = errors.New("user not found")
	// ErrComplaintNotFound is returned when a complaint lookup has no match.
	ErrComplaintNotFound = errors.New("complaint not found")
)

// ComplaintStatusOpen is the status of a freshly filed complaint.
const ComplaintStatusOpen = "open"

// User is a registered citizen.
type User struct {
	ID          uuid.UUID
	PhoneNumber string
	Name        string
}

// NewComplaint is the payload persisted on submission.
type NewComplaint struct {
	UserID        uuid.UUID
	Title         string
	Description   string
	Category      Department
	SeverityScore float64
	Location      Coordinates
	ImageRef      string
	ImageLabel    string
}

// Complaint is a stored complaint record.
type Complaint struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Title         string
	Description   string
	Category      string
	SeverityScore float64
	Latitude      float64
	Longitude     float64
	ImageRef      string
	Status        string
	CreatedAt     time.Time
}

// ShortID is the first eight characters of the record ID shown to citizens.
func (c Complaint) ShortID() string {
	return c.ID.String()[:8]
}
