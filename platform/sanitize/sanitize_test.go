package sanitize

import "testing"

func TestText_StripsMarkupAndControlCharacters(t *testing.T) {
	got := Text("  <b>Pothole</b>\x00 near   the\r\n\n\n\nschool  ")
	want := "Pothole near the\n\nschool"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestText_DecodesEncodedTags(t *testing.T) {
	got := Text("&lt;script&gt;alert(1)&lt;/script&gt;water leak")
	if got != "alert(1)water leak" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("expected untouched string, got %q", got)
	}
	if got := Truncate("पानी की समस्या है", 8); got != "पानी ..." {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}
}
