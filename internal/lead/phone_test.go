package lead

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"5551234567", "+15551234567", true},
		{"15551234567", "+15551234567", true},
		{"(555) 123-4567", "+15551234567", true},
		{"1-555-123-4567", "+15551234567", true},
		{"+1 555 123 4567", "+15551234567", true},
		// longer than 11 digits keeps only the trailing 10
		{"9915551234567", "+15551234567", true},
		{"123456789", "", false},
		{"", "", false},
		{"call me", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizePhone(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("NormalizePhone(%q) = %q/%v, want %q/%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestExtractPhoneCandidates(t *testing.T) {
	text := "Call John at (555) 123-4567 or 555.123.4567, backup 1 555 987 6543."
	got := ExtractPhoneCandidates(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 deduped candidates, got %v", got)
	}
	if got[0] != "+15551234567" || got[1] != "+15559876543" {
		t.Fatalf("unexpected candidates: %v", got)
	}
}

func TestFromRowsFiltersAndCaps(t *testing.T) {
	m := Mapping{FirstName: "fn", LastName: "ln", Phone: "tel"}
	rows := []map[string]string{
		{"fn": "Ana", "ln": "Diaz", "tel": "5551230001"},
		{"fn": "Bad", "ln": "Row", "tel": "123"},
		{"fn": "Bob", "ln": "King", "tel": "5551230002"},
		{"fn": "Cut", "ln": "Off", "tel": "5551230003"},
	}

	leads := FromRows(rows, m, 2)
	if len(leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(leads))
	}
	if leads[0].FullName() != "Ana Diaz" || leads[0].Phone != "+15551230001" {
		t.Fatalf("unexpected first lead: %+v", leads[0])
	}
	if leads[1].FirstName != "Bob" {
		t.Fatalf("row without usable phone should be skipped, got %+v", leads[1])
	}
}
