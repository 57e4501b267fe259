// Package mediawiki decodes MediaWiki XML export dumps one page at a time.
//
// The package is built around three pieces:
//
//   - Parser, a suspendable event driver over an encoding/xml tokenizer that
//     forwards character data, element-open and element-close events to a
//     Listener.
//   - A cascade of small state machines (PageDecoder, RevisionDecoder,
//     ContributorDecoder, SiteInfoDecoder, ...) that rebuild typed records
//     from those events.
//   - PageReader, which drives the Parser with a PageDecoder and stops after
//     every </page> so that only one page of decoder state is ever live.
//
// Typical use:
//
//	r := mediawiki.NewPageReader(src)
//	for r.Next() {
//	    page := r.Read()
//	    ...
//	}
//	if err := r.Err(); err != nil { ... }
package mediawiki

import (
	"fmt"
	"time"
)

// Namespace corresponds to a <namespace> entry of <siteinfo>.
type Namespace struct {
	Key  int64
	Case string
	Name string
}

// SiteInfo carries the static metadata found at the head of a dump.
type SiteInfo struct {
	SiteName   string
	DBName     string
	Base       string
	Generator  string
	Case       string
	Namespaces []Namespace
}

// Contributor is the author of a revision or upload.
//
// Username and ID usually come together, IP replaces both for anonymous
// edits, and all three are absent when the contributor has been redacted
// (Deleted is then true).
type Contributor struct {
	Username *string
	ID       *uint64
	IP       *string
	Deleted  bool
}

func (c Contributor) String() string {
	s := "<Contributor"
	if c.Username != nil {
		s += " username=" + *c.Username
	}
	if c.ID != nil {
		s += fmt.Sprintf(" id=%d", *c.ID)
	}
	if c.IP != nil {
		s += " ip=" + *c.IP
	}
	return s + fmt.Sprintf(" deleted=%t>", c.Deleted)
}

// Revision is a single revision of a page.
type Revision struct {
	ID          uint64
	ParentID    *uint64
	Timestamp   int64 // milliseconds since the Unix epoch
	Contributor Contributor
	Minor       bool
	Comment     *string
	Model       string
	Format      string
	Text        string
	SHA1        string
}

// Time returns the revision timestamp as a UTC time.
func (r Revision) Time() time.Time {
	return time.UnixMilli(r.Timestamp).UTC()
}

func (r Revision) String() string {
	var parent uint64
	if r.ParentID != nil {
		parent = *r.ParentID
	}
	return fmt.Sprintf("<Revision id=%d parent_id=%d timestamp=%d contributor=%s minor=%t model=%s format=%s>",
		r.ID, parent, r.Timestamp, r.Contributor, r.Minor, r.Model, r.Format)
}

// Upload is a file upload attached to a page.
type Upload struct {
	Timestamp   int64
	Contributor Contributor
	Comment     string
	Filename    string
	Src         string
	Size        uint64
}

// DiscussionThreadingInfo is the LiquidThreads metadata of a talk page.
type DiscussionThreadingInfo struct {
	ThreadSubject    string
	ThreadParent     uint64
	ThreadAncestor   uint64
	ThreadPage       string
	ThreadID         uint64
	ThreadAuthor     string
	ThreadEditStatus string
	ThreadType       string
}

// Page is a wiki page with every revision present in the dump.
type Page struct {
	Title        string
	NS           uint64
	ID           uint64
	Redirect     *string
	Restrictions *string
	Revisions    []Revision
	Uploads      []Upload

	DiscussionThreadingInfo *DiscussionThreadingInfo
}
