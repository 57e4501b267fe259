package mediawiki

import "encoding/xml"

type pageState int

const (
	pageTitle pageState = iota
	pageNS
	pageID
	pageRedirect
	pageRestrictions
	pageRevision // <revision> and <upload> may alternate from here on
	pageUpload
	pageDiscussion
	pageEnd
)

var pageFields = fieldSet{
	pageTitle:        "title",
	pageNS:           "ns",
	pageID:           "id",
	pageRedirect:     "redirect",
	pageRestrictions: "restrictions",
	pageRevision:     "revision",
	pageUpload:       "upload",
	pageDiscussion:   "discussionthreadinginfo",
}

// PageDecoder decodes <page> subtrees out of a whole document and suspends
// the parser after each one. It also picks up <siteinfo> on the way.
//
// The decoder counts depth over the whole document rather than relative to
// the page: a page ends when a </page> brings the depth back to where its
// opening tag was found, however deep the markup inside it goes.
type PageDecoder struct {
	cursor // depth is document depth here

	state     pageState
	inPage    bool
	pageDepth int // depth of the <page> element being decoded
	page      Page
	ready     Page

	child child
	rev   RevisionDecoder
	up    UploadDecoder
	dti   DiscussionDecoder
	site  SiteInfoDecoder

	siteInfo *SiteInfo
	report   reporter
}

// NewPageDecoder returns a decoder that reports field conversion failures
// to onError, which may be nil.
func NewPageDecoder(onError func(*FieldError)) *PageDecoder {
	d := &PageDecoder{report: onError}
	d.rev.setReporter(d.report)
	d.up.setReporter(d.report)
	d.dti.report = d.report
	d.site.report = d.report
	return d
}

// Page returns the most recently completed page.
func (d *PageDecoder) Page() Page { return d.ready }

// SiteInfo returns the dump's site info once <siteinfo> has been decoded.
func (d *PageDecoder) SiteInfo() (SiteInfo, bool) {
	if d.siteInfo == nil {
		return SiteInfo{}, false
	}
	return *d.siteInfo, true
}

func (d *PageDecoder) HandleStartElement(ctl Control, name string, attrs []xml.Attr) {
	d.depth++
	if d.child != nil {
		d.child.HandleStartElement(ctl, name, attrs)
		return
	}

	if !d.inPage {
		switch name {
		case "page":
			d.inPage = true
			d.pageDepth = d.depth
			d.page = Page{}
			d.state = pageTitle
			d.capture = false
		case "siteinfo":
			d.child = &d.site
			d.site.HandleStartElement(ctl, name, attrs)
		}
		return
	}

	if d.depth != d.pageDepth+1 {
		return
	}
	pos, ok := pageFields.seek(int(d.state), name)
	if !ok {
		d.capture = false
		return
	}
	d.state = pageState(pos)

	switch d.state {
	case pageRevision:
		d.child = &d.rev
	case pageUpload:
		d.child = &d.up
	case pageDiscussion:
		d.child = &d.dti
	case pageRedirect:
		// an empty element; everything it has is in the title attribute
		d.capture = false
		if title, ok := attr(attrs, "title"); ok {
			d.page.Redirect = strptr(title)
		}
		d.state = pageRestrictions
		return
	default:
		d.text.reset()
		d.capture = true
		return
	}
	d.capture = false
	d.child.HandleStartElement(ctl, name, attrs)
}

func (d *PageDecoder) HandleCharData(ctl Control, text []byte) {
	if d.child != nil {
		d.child.HandleCharData(ctl, text)
		return
	}
	if d.inPage && d.capture && d.depth == d.pageDepth+1 {
		d.text.write(text)
	}
}

func (d *PageDecoder) HandleEndElement(ctl Control, name string) {
	d.depth--
	if d.child != nil {
		d.child.HandleEndElement(ctl, name)
		if !d.child.active() {
			d.collect()
		}
		return
	}

	if !d.inPage {
		return
	}
	if d.depth == d.pageDepth-1 {
		if name == "page" {
			d.inPage = false
			d.ready = d.page
			d.page = Page{}
			_ = ctl.Suspend()
		}
		return
	}
	if d.depth != d.pageDepth {
		return
	}

	if !d.capture {
		return
	}
	d.capture = false
	text := d.text.String()
	switch d.state {
	case pageTitle:
		d.page.Title = text
	case pageNS:
		d.page.NS = d.number(name, text)
	case pageID:
		d.page.ID = d.number(name, text)
	case pageRestrictions:
		d.page.Restrictions = strptr(text)
	}
	d.state++
}

// collect moves a finished child record into the page.
func (d *PageDecoder) collect() {
	switch d.child {
	case &d.rev:
		d.page.Revisions = append(d.page.Revisions, d.rev.Revision())
		d.state = pageRevision
	case &d.up:
		d.page.Uploads = append(d.page.Uploads, d.up.Upload())
		d.state = pageRevision
	case &d.dti:
		info := d.dti.Info()
		d.page.DiscussionThreadingInfo = &info
		d.state = pageEnd
	case &d.site:
		info := d.site.SiteInfo()
		d.siteInfo = &info
	}
	d.child = nil
}

func (d *PageDecoder) number(name, text string) uint64 {
	v, err := ParseUint64(text)
	if err != nil {
		d.report.fail("page", name, text, err)
	}
	return v
}
