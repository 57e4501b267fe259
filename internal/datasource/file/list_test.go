package file

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadList(t *testing.T) {
	t.Parallel()
	p := filepath.Join(t.TempDir(), "dumps.txt")
	body := "# mirrors\n\n  /data/a.xml.bz2  \nhttps://dumps.example.org/b.xml.bz2\n   # indented comment\n/data/c.xml\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadList(p)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/data/a.xml.bz2", "https://dumps.example.org/b.xml.bz2", "/data/c.xml"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ReadList = %#v, want %#v", got, want)
	}
	if _, err := ReadList(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing list")
	}
}

func TestGather(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for _, name := range []string{"b.xml.bz2", "a.xml", "c.xml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested", "d.xml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_ = os.Symlink(filepath.Join(dir, "gone"), filepath.Join(dir, "dangling"))

	got, err := Gather(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a.xml"),
		filepath.Join(dir, "b.xml.bz2"),
		filepath.Join(dir, "c.xml"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Gather = %#v, want %#v", got, want)
	}

	empty := t.TempDir()
	if got, err := Gather(empty); err != nil || len(got) != 0 {
		t.Fatalf("Gather(empty) = %v, %v", got, err)
	}
	if _, err := Gather(filepath.Join(dir, "a.xml")); err == nil {
		t.Fatal("expected error gathering a file")
	}
}
