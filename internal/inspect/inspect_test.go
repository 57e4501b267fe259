package inspect

import (
	"encoding/json"
	"os"
	"reflect"
	"strings"
	"testing"

	"mwdump/internal/bz2"
)

func TestDiscover_Sample(t *testing.T) {
	t.Parallel()
	f, err := os.Open("../mediawiki/testdata/sample.xml")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rep, err := Discover(f, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if rep.RecordTag != "page" || rep.TotalRecords != 3 || rep.Truncated {
		t.Fatalf("report = %+v", rep)
	}
	rev := rep.Paths["revision"]
	if rev.TotalCount != 4 || rev.RecordsWith != 3 || rev.MaxPerRecord != 2 || !rev.Decoded {
		t.Fatalf("revision stats = %+v", rev)
	}
	if got := rep.Paths["redirect"].AttrExamples["title"]["April"]; got != 1 {
		t.Fatalf("redirect title count = %d", got)
	}
	if !reflect.DeepEqual(rep.Skipped, []string{"revision/origin"}) {
		t.Fatalf("skipped = %v", rep.Skipped)
	}
	if _, ok := rep.Paths["sitename"]; ok {
		t.Fatal("siteinfo leaked into page paths")
	}
	if _, err := json.Marshal(rep); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover_TruncatedInput(t *testing.T) {
	t.Parallel()
	doc := `<mediawiki><page><title>A</title></page><page><title>B</title>`
	rep, err := Discover(strings.NewReader(doc), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Truncated {
		t.Fatal("truncation not reported")
	}
	if rep.TotalRecords != 1 || rep.Paths["title"].TotalCount != 1 {
		t.Fatalf("only the closed page should count: %+v", rep)
	}
}

func TestDiscover_TruncatedBzip2(t *testing.T) {
	t.Parallel()
	f, err := os.Open("../bz2/testdata/truncated.xml.bz2")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rep, err := Discover(bz2.NewReader(f, true, 0), Options{})
	if err != nil {
		t.Fatalf("cut bzip2 stream should not be an error: %v", err)
	}
	if !rep.Truncated {
		t.Fatal("truncation not reported")
	}
}

func TestDiscover_Options(t *testing.T) {
	t.Parallel()
	doc := `<Root><Rec><A>1</A><A>2</A><A>3</A></Rec><Rec><A>4</A></Rec><Rec><A>5</A></Rec></Root>`
	rep, err := Discover(strings.NewReader(doc), Options{RecordTag: "Rec", MaxRecords: 2, Examples: 2})
	if err != nil {
		t.Fatal(err)
	}
	if rep.TotalRecords != 2 {
		t.Fatalf("records = %d, want 2", rep.TotalRecords)
	}
	a := rep.Paths["A"]
	if a.TotalCount != 4 || a.MaxPerRecord != 3 {
		t.Fatalf("A = %+v", a)
	}
	if !reflect.DeepEqual(a.ExampleTexts, []string{"1", "2"}) {
		t.Fatalf("examples = %v", a.ExampleTexts)
	}
	if !reflect.DeepEqual(SortedPaths(rep), []string{"A"}) {
		t.Fatalf("paths = %v", SortedPaths(rep))
	}
}

func TestClip(t *testing.T) {
	t.Parallel()
	short := "héllo"
	if clip(short) != short {
		t.Fatal("short text changed")
	}
	long := strings.Repeat("é", maxExampleLen+5)
	got := clip(long)
	if !strings.HasSuffix(got, "…") || len([]rune(got)) != maxExampleLen+1 {
		t.Fatalf("clip = %q", got)
	}
}
