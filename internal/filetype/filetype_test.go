package filetype

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGuess(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want FileType
	}{
		{"bzip2", "BZh91AY&SY", BZip2},
		{"bare signature", "BZh", BZip2},
		{"xml", "<mediawiki>", XML},
		{"empty", "", XML},
		{"short", "BZ", XML},
		{"lowercase", "bzh9", XML},
	}
	for _, tc := range tests {
		rs := strings.NewReader(tc.in)
		got, err := Guess(rs)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: Guess = %v, want %v", tc.name, got, tc.want)
		}
		if pos, _ := rs.Seek(0, io.SeekCurrent); pos != 0 {
			t.Fatalf("%s: not rewound, at %d", tc.name, pos)
		}
	}
}

func TestGuessRewindsToStart(t *testing.T) {
	t.Parallel()
	rs := strings.NewReader("xxBZh9")
	if _, err := rs.Seek(2, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	got, err := Guess(rs)
	if err != nil || got != BZip2 {
		t.Fatalf("Guess = %v, %v", got, err)
	}
	if pos, _ := rs.Seek(0, io.SeekCurrent); pos != 2 {
		t.Fatalf("position = %d, want 2", pos)
	}
}

type brokenSeeker struct{ io.ReadSeeker }

func (brokenSeeker) Read([]byte) (int, error) { return 0, errors.New("io failure") }

func TestGuessReadFailureIsUnknown(t *testing.T) {
	t.Parallel()
	got, err := Guess(brokenSeeker{strings.NewReader("")})
	if err == nil || got != Unknown {
		t.Fatalf("Guess = %v, %v; want Unknown and an error", got, err)
	}
}

func TestGuessFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.xml.bz2")
	if err := os.WriteFile(path, []byte("BZh91AY"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, err := GuessFile(path); err != nil || got != BZip2 {
		t.Fatalf("GuessFile = %v, %v", got, err)
	}
	if _, err := GuessFile(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParse(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]FileType{"bzip2": BZip2, "BZIP2": BZip2, "bz2": BZip2, "xml": XML} {
		got, err := Parse(in)
		if err != nil || got != want {
			t.Fatalf("Parse(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := Parse("gzip"); err == nil {
		t.Fatal("expected error for gzip")
	}
	if BZip2.String() != "bzip2" || XML.String() != "xml" || Unknown.String() != "unknown" {
		t.Fatal("unexpected String values")
	}
	if !BZip2.Compressed() || XML.Compressed() {
		t.Fatal("Compressed mismatch")
	}
}

func TestPeek(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want FileType
	}{
		{"BZh91AY&SY", BZip2},
		{"<mediawiki>", XML},
		{"BZ", XML},
		{"", XML},
	}
	for _, tt := range tests {
		r, got, err := Peek(strings.NewReader(tt.in))
		if err != nil {
			t.Fatalf("Peek(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("Peek(%q) = %v, want %v", tt.in, got, tt.want)
		}
		body, _ := io.ReadAll(r)
		if string(body) != tt.in {
			t.Fatalf("Peek(%q) consumed input: %q", tt.in, body)
		}
	}

	boom := errors.New("boom")
	if _, got, err := Peek(&errReader{boom}); !errors.Is(err, boom) || got != Unknown {
		t.Fatalf("Peek on failing reader = %v, %v", got, err)
	}
}

type errReader struct{ err error }

func (e *errReader) Read([]byte) (int, error) { return 0, e.err }
