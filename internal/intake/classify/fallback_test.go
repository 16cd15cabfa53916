package classify

import (
	"testing"

	"nirvana_backend/internal/intake/domain"
)

func TestFallback_DepartmentOrder(t *testing.T) {
	cases := []struct {
		text string
		want domain.Department
	}{
		{"Water pipe burst on the road", domain.DepartmentWater},
		{"power cut since morning", domain.DepartmentElectricity},
		{"huge pothole near the school", domain.DepartmentPublicWorks},
		{"trash everywhere in the park", domain.DepartmentSanitation},
		{"hospital has no doctor at night", domain.DepartmentHealth},
		{"metro is overcrowded", domain.DepartmentTransport},
		{"noisy neighbours every weekend", domain.DepartmentGeneral},
	}
	for _, tc := range cases {
		if got := Fallback(tc.text).Department; got != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.text, tc.want, got)
		}
	}
}

func TestFallback_SeverityPrecedence(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"emergency: live wire damaged, big problem", 0.9},
		{"tap not working, small problem", 0.7},
		{"suggestion to improve the bus stop", 0.3},
		{"the park bench is old", 0.5},
	}
	for _, tc := range cases {
		if got := Fallback(tc.text).SeverityScore; got != tc.want {
			t.Fatalf("%q: expected %.1f, got %.1f", tc.text, tc.want, got)
		}
	}
}

func TestFallback_CaseInsensitive(t *testing.T) {
	got := Fallback("GARBAGE NOT COLLECTED")
	if got.Department != domain.DepartmentSanitation || got.SeverityScore != 0.7 || !got.NeedsImage {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestFallback_AlwaysInRange(t *testing.T) {
	inputs := []string{"", " ", "🙂🙂🙂", "a\x00b", "fire fire urgent accident", "request", string(make([]byte, 4096))}
	for _, in := range inputs {
		got := Fallback(in)
		if got.SeverityScore < domain.MinSeverity || got.SeverityScore > domain.MaxSeverity {
			t.Fatalf("severity out of range for %q: %v", in, got.SeverityScore)
		}
		if _, ok := domain.ParseDepartment(got.Department.String()); !ok {
			t.Fatalf("unknown department %q", got.Department)
		}
	}
}

func TestFallback_NeedsImage(t *testing.T) {
	if !Fallback("open manhole outside").NeedsImage {
		t.Fatalf("expected manhole to need an image")
	}
	if Fallback("bus timetable is wrong").NeedsImage {
		t.Fatalf("expected timetable complaint not to need an image")
	}
}
