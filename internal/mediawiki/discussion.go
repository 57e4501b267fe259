package mediawiki

import "encoding/xml"

type discussionState int

const (
	discussionSubject discussionState = iota
	discussionParent
	discussionAncestor
	discussionPage
	discussionID
	discussionAuthor
	discussionEditStatus
	discussionType
	discussionEnd
)

var discussionFields = fieldSet{
	discussionSubject:    "ThreadSubject",
	discussionParent:     "ThreadParent",
	discussionAncestor:   "ThreadAncestor",
	discussionPage:       "ThreadPage",
	discussionID:         "ThreadID",
	discussionAuthor:     "ThreadAuthor",
	discussionEditStatus: "ThreadEditStatus",
	discussionType:       "ThreadType",
}

// DiscussionDecoder decodes a <discussionthreadinginfo> subtree.
type DiscussionDecoder struct {
	cursor
	state  discussionState
	info   DiscussionThreadingInfo
	report reporter
}

// Info returns the last decoded threading info.
func (d *DiscussionDecoder) Info() DiscussionThreadingInfo { return d.info }

func (d *DiscussionDecoder) active() bool { return d.depth > 0 }

func (d *DiscussionDecoder) HandleStartElement(_ Control, name string, _ []xml.Attr) {
	d.depth++
	switch d.depth {
	case 1:
		d.info = DiscussionThreadingInfo{}
		d.state = discussionSubject
		d.capture = false
	case 2:
		pos, ok := discussionFields.seek(int(d.state), name)
		if !ok {
			d.capture = false
			return
		}
		d.state = discussionState(pos)
		d.open()
	}
}

func (d *DiscussionDecoder) HandleCharData(_ Control, text []byte) { d.chardata(text) }

func (d *DiscussionDecoder) HandleEndElement(_ Control, name string) {
	defer func() { d.depth-- }()
	if d.depth != 2 || !d.capture {
		return
	}
	d.capture = false
	text := d.text.String()
	switch d.state {
	case discussionSubject:
		d.info.ThreadSubject = text
	case discussionParent:
		d.info.ThreadParent = d.number(name, text)
	case discussionAncestor:
		d.info.ThreadAncestor = d.number(name, text)
	case discussionPage:
		d.info.ThreadPage = text
	case discussionID:
		d.info.ThreadID = d.number(name, text)
	case discussionAuthor:
		d.info.ThreadAuthor = text
	case discussionEditStatus:
		d.info.ThreadEditStatus = text
	case discussionType:
		d.info.ThreadType = text
	}
	d.state++
}

func (d *DiscussionDecoder) number(name, text string) uint64 {
	v, err := ParseUint64(text)
	if err != nil {
		d.report.fail("discussionthreadinginfo", name, text, err)
	}
	return v
}
