package notification

import (
	"fmt"
	"net/mail"
	"os"
	"strings"

	"nirvana_backend/internal/intake/domain"

	"gopkg.in/yaml.v3"
)

// escalationSeverity is the score from which escalation contacts are copied.
const escalationSeverity = 0.9

// Directory maps departments to the addresses that receive new complaints.
type Directory struct {
	Fallback    string              `yaml:"fallback_email"`
	Departments []DepartmentContact `yaml:"departments"`

	byName map[domain.Department]DepartmentContact
}

// DepartmentContact is one department's routing entry.
type DepartmentContact struct {
	Name       string   `yaml:"name"`
	Email      string   `yaml:"email"`
	CC         []string `yaml:"cc"`
	Escalation []string `yaml:"escalation"`
}

// LoadDirectory reads a YAML directory file. A missing file yields an empty
// directory so deployments without department mail keep working.
func LoadDirectory(path string) (*Directory, error) {
	if strings.TrimSpace(path) == "" {
		return ParseDirectory(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ParseDirectory(nil)
		}
		return nil, fmt.Errorf("read department directory: %w", err)
	}
	return ParseDirectory(data)
}

// ParseDirectory decodes and validates directory YAML.
func ParseDirectory(data []byte) (*Directory, error) {
	d := &Directory{}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, d); err != nil {
			return nil, fmt.Errorf("parse department directory: %w", err)
		}
	}

	if d.Fallback != "" {
		if err := checkAddress(d.Fallback); err != nil {
			return nil, fmt.Errorf("fallback_email: %w", err)
		}
	}

	d.byName = make(map[domain.Department]DepartmentContact, len(d.Departments))
	for i, c := range d.Departments {
		dept, ok := domain.ParseDepartment(c.Name)
		if !ok {
			return nil, fmt.Errorf("departments[%d]: unknown department %q", i, c.Name)
		}
		for _, addr := range append(append([]string{c.Email}, c.CC...), c.Escalation...) {
			if err := checkAddress(addr); err != nil {
				return nil, fmt.Errorf("departments[%d] (%s): %w", i, c.Name, err)
			}
		}
		if _, dup := d.byName[dept]; dup {
			return nil, fmt.Errorf("departments[%d]: %s listed twice", i, dept)
		}
		d.byName[dept] = c
	}
	return d, nil
}

// Recipients returns the To address and copy addresses for a complaint.
// Unlisted departments go to the fallback address; to is empty when no
// address is known.
func (d *Directory) Recipients(dept domain.Department, severity float64) (to string, cc []string) {
	if d == nil {
		return "", nil
	}
	c, ok := d.byName[dept]
	if !ok {
		return d.Fallback, nil
	}

	cc = append(cc, c.CC...)
	if severity >= escalationSeverity {
		cc = append(cc, c.Escalation...)
	}
	return c.Email, cc
}

func checkAddress(addr string) error {
	if _, err := mail.ParseAddress(addr); err != nil {
		return fmt.Errorf("invalid address %q", addr)
	}
	return nil
}
