package mediawiki

import (
	"encoding/xml"
	"os"
	"strings"
	"testing"
)

// refDump is a whole-document decode of the same input with encoding/xml
// struct tags, used as the reference for the streaming reader.
type refDump struct {
	Pages []struct {
		Title    string `xml:"title"`
		NS       uint64 `xml:"ns"`
		ID       uint64 `xml:"id"`
		Redirect *struct {
			Title string `xml:"title,attr"`
		} `xml:"redirect"`
		Revisions []struct {
			ID        uint64 `xml:"id"`
			Timestamp string `xml:"timestamp"`
			Text      string `xml:"text"`
			SHA1      string `xml:"sha1"`
			Model     string `xml:"model"`
		} `xml:"revision"`
	} `xml:"page"`
}

func readSample(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/sample.xml")
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestPageReaderMatchesWholeDocumentDecode(t *testing.T) {
	t.Parallel()
	doc := readSample(t)

	var ref refDump
	if err := xml.Unmarshal([]byte(doc), &ref); err != nil {
		t.Fatal(err)
	}

	r := NewPageReader(strings.NewReader(doc), WithBufferSize(32))
	var got []Page
	for r.Next() {
		got = append(got, r.Read())
	}
	if err := r.Err(); err != nil {
		t.Fatal(err)
	}
	if len(got) != len(ref.Pages) {
		t.Fatalf("pages = %d, want %d", len(got), len(ref.Pages))
	}
	for i, want := range ref.Pages {
		p := got[i]
		if p.Title != want.Title || p.NS != want.NS || p.ID != want.ID {
			t.Fatalf("page %d = %q/%d/%d, want %q/%d/%d", i, p.Title, p.NS, p.ID, want.Title, want.NS, want.ID)
		}
		if (p.Redirect == nil) != (want.Redirect == nil) {
			t.Fatalf("page %d redirect = %v, want %v", i, p.Redirect, want.Redirect)
		}
		if p.Redirect != nil && *p.Redirect != want.Redirect.Title {
			t.Fatalf("page %d redirect = %q, want %q", i, *p.Redirect, want.Redirect.Title)
		}
		if len(p.Revisions) != len(want.Revisions) {
			t.Fatalf("page %d revisions = %d, want %d", i, len(p.Revisions), len(want.Revisions))
		}
		for j, wr := range want.Revisions {
			rev := p.Revisions[j]
			ts, err := ParseTimestamp(wr.Timestamp)
			if err != nil {
				t.Fatal(err)
			}
			if rev.ID != wr.ID || rev.Timestamp != ts || rev.Text != wr.Text || rev.SHA1 != wr.SHA1 || rev.Model != wr.Model {
				t.Fatalf("page %d revision %d = %+v, want %+v", i, j, rev, wr)
			}
		}
	}
}

func TestPageReaderSample(t *testing.T) {
	t.Parallel()
	r := NewPageReader(strings.NewReader(readSample(t)))
	if _, ok := r.SiteInfo(); ok {
		t.Fatal("site info before the first Next")
	}
	var pages []Page
	for r.Next() {
		pages = append(pages, r.Read())
	}
	if err := r.Err(); err != nil {
		t.Fatal(err)
	}
	if len(pages) != 3 {
		t.Fatalf("pages = %d, want 3", len(pages))
	}
	if r.Next() {
		t.Fatal("Next after the end should stay false")
	}

	first := pages[0]
	if len(first.Revisions) != 2 {
		t.Fatalf("revisions = %d", len(first.Revisions))
	}
	if got := first.Revisions[0].Text; got != "'''April''' & May" {
		t.Fatalf("text = %q", got)
	}
	second := first.Revisions[1]
	if second.ParentID == nil || *second.ParentID != 100 || !second.Minor || second.Comment != nil {
		t.Fatalf("second revision = %+v", second)
	}

	redirect := pages[1]
	if redirect.Redirect == nil || *redirect.Redirect != "April" {
		t.Fatalf("redirect = %v", redirect.Redirect)
	}
	if redirect.Restrictions == nil || *redirect.Restrictions != "edit=sysop" {
		t.Fatalf("restrictions = %v", redirect.Restrictions)
	}
	if redirect.Revisions[0].Timestamp != 1578114367000 {
		t.Fatalf("compact timestamp = %d", redirect.Revisions[0].Timestamp)
	}

	file := pages[2]
	if len(file.Uploads) != 1 || file.Uploads[0].Size != 2048 {
		t.Fatalf("uploads = %+v", file.Uploads)
	}
	if file.DiscussionThreadingInfo == nil || file.DiscussionThreadingInfo.ThreadAncestor != 4 {
		t.Fatalf("threading info = %+v", file.DiscussionThreadingInfo)
	}

	si, ok := r.SiteInfo()
	if !ok {
		t.Fatal("site info missing")
	}
	if si.DBName != "simplewiki" || si.Case != "first-letter" || len(si.Namespaces) != 3 {
		t.Fatalf("site info = %+v", si)
	}
	if ns := si.Namespaces[0]; ns.Key != -1 || ns.Name != "Special" {
		t.Fatalf("namespace 0 = %+v", ns)
	}
	if ns := si.Namespaces[1]; ns.Key != 0 || ns.Name != "" {
		t.Fatalf("namespace 1 = %+v", ns)
	}
}

func TestPageReaderPagesAreIndependent(t *testing.T) {
	t.Parallel()
	r := NewPageReader(strings.NewReader(readSample(t)))
	if !r.Next() {
		t.Fatal(r.Err())
	}
	first := r.Read()
	text := first.Revisions[0].Text
	for r.Next() {
	}
	if first.Revisions[0].Text != text || len(first.Revisions) != 2 {
		t.Fatalf("earlier page was mutated: %+v", first.Revisions)
	}
}

func TestPageReaderEdgeDocuments(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		doc   string
		pages int
		err   bool
	}{
		{name: "empty", doc: "", pages: 0},
		{name: "no pages", doc: `<mediawiki><siteinfo><sitename>x</sitename></siteinfo></mediawiki>`, pages: 0},
		{name: "rootless fragment", doc: `<page><title>a</title></page><page><title>b</title></page>`, pages: 2},
		{name: "truncated", doc: `<mediawiki><page><title>a</title></page><page><title>b`, pages: 1, err: true},
		{name: "malformed", doc: `<mediawiki><page><title>a</page></mediawiki>`, pages: 0, err: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := NewPageReader(strings.NewReader(tc.doc))
			n := 0
			for r.Next() {
				n++
			}
			if n != tc.pages {
				t.Fatalf("pages = %d, want %d", n, tc.pages)
			}
			if (r.Err() != nil) != tc.err {
				t.Fatalf("err = %v, want error %t", r.Err(), tc.err)
			}
		})
	}
}
