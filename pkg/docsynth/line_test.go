package docsynth

import (
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   Line
	}{
		{
			name:   "full line",
			input:  "23 0.1 0.2 0 0 0.5 0.6 0 0",
			wantOK: true,
			want:   Line{CategoryID: 23, X0: 0.1, Y0: 0.2, X1: 0.5, Y1: 0.6},
		},
		{
			name:   "extra whitespace",
			input:  "  63\t0.25  0.5 0.75 0.5 0.75 1 0.25 1  ",
			wantOK: true,
			want:   Line{CategoryID: 63, X0: 0.25, Y0: 0.5, X1: 0.75, Y1: 1},
		},
		{
			name:   "trailing tokens are accepted",
			input:  "48 0 0 1 0 1 1 0 1 0.98",
			wantOK: true,
			want:   Line{CategoryID: 48, X0: 0, Y0: 0, X1: 1, Y1: 1},
		},
		{name: "five tokens", input: "23 0.1 0.2 0.5 0.6"},
		{name: "eight tokens", input: "23 0.1 0.2 0 0 0.5 0.6 0"},
		{name: "empty", input: ""},
		{name: "bad category", input: "x 0.1 0.2 0 0 0.5 0.6 0 0"},
		{name: "bad coordinate", input: "23 0.1 nope 0 0 0.5 0.6 0 0"},
		{name: "nan coordinate", input: "48 NaN 0 0 0 1 1 0 0"},
		{name: "inf coordinate", input: "48 0 0 0 0 +Inf 1 0 0"},
		{name: "infinity coordinate", input: "48 0 -infinity 0 0 1 1 0 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLine(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseLine(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.CategoryID != tt.want.CategoryID || got.X0 != tt.want.X0 || got.Y0 != tt.want.Y0 ||
				got.X1 != tt.want.X1 || got.Y1 != tt.want.Y1 {
				t.Fatalf("ParseLine(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if len(got.Tokens) < MinTokens {
				t.Fatalf("expected at least %d tokens, got %d", MinTokens, len(got.Tokens))
			}
		})
	}
}

func TestFormatLineRoundTrip(t *testing.T) {
	line := FormatLine(CategoryTable, RectQuad(0.125, 0.25, 0.5, 0.75))
	if line != "63 0.125 0.25 0.5 0.25 0.5 0.75 0.125 0.75" {
		t.Fatalf("unexpected line %q", line)
	}

	parsed, ok := ParseLine(line)
	if !ok {
		t.Fatalf("formatted line did not parse: %q", line)
	}
	if parsed.CategoryID != CategoryTable || parsed.X0 != 0.125 || parsed.Y0 != 0.25 || parsed.X1 != 0.5 || parsed.Y1 != 0.75 {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}
}

func TestDetailedCategories(t *testing.T) {
	if len(DetailedCategories) != 74 {
		t.Fatalf("expected 74 detailed categories, got %d", len(DetailedCategories))
	}
	for i, c := range DetailedCategories {
		if c.ID != i {
			t.Fatalf("category at index %d has id %d", i, c.ID)
		}
		if c.Supercategory != "" {
			t.Fatalf("category %d has supercategory %q", i, c.Supercategory)
		}
	}

	for id, want := range map[int]string{
		0:                 "QR code",
		CategoryFigure:    "figure",
		CategoryParagraph: "paragraph",
		CategoryTable:     "table",
		73:                "weather forecast",
	} {
		got, ok := CategoryName(id)
		if !ok || got != want {
			t.Fatalf("CategoryName(%d) = %q, %v; want %q", id, got, ok, want)
		}
	}

	if _, ok := CategoryName(74); ok {
		t.Fatal("expected id 74 to be unknown")
	}
	if _, ok := CategoryName(-1); ok {
		t.Fatal("expected id -1 to be unknown")
	}
}
