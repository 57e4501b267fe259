package mediawiki

import "encoding/xml"

type revisionState int

const (
	revisionID revisionState = iota
	revisionParentID
	revisionTimestamp
	revisionContributor
	revisionMinor
	revisionComment
	revisionModel
	revisionFormat
	revisionText
	revisionSHA1
	revisionEnd
)

var revisionFields = fieldSet{
	revisionID:          "id",
	revisionParentID:    "parentid",
	revisionTimestamp:   "timestamp",
	revisionContributor: "contributor",
	revisionMinor:       "minor",
	revisionComment:     "comment",
	revisionModel:       "model",
	revisionFormat:      "format",
	revisionText:        "text",
	revisionSHA1:        "sha1",
}

// RevisionDecoder decodes a <revision> subtree. Its text arena keeps its
// capacity from one revision to the next, so the large <text> field is not
// reallocated for every revision of a long history.
type RevisionDecoder struct {
	cursor
	state    revisionState
	revision Revision
	deleted  bool // current field carries deleted="deleted"
	stamped  bool // a <timestamp> was seen
	contrib  ContributorDecoder
	report   reporter
}

// Revision returns the last decoded revision.
func (d *RevisionDecoder) Revision() Revision { return d.revision }

func (d *RevisionDecoder) active() bool { return d.depth > 0 }

func (d *RevisionDecoder) setReporter(r reporter) {
	d.report = r
	d.contrib.report = r
}

func (d *RevisionDecoder) HandleStartElement(ctl Control, name string, attrs []xml.Attr) {
	if d.contrib.active() {
		d.depth++
		d.contrib.HandleStartElement(ctl, name, attrs)
		return
	}

	d.depth++
	switch d.depth {
	case 1:
		d.revision = Revision{}
		d.state = revisionID
		d.capture = false
		d.stamped = false
	case 2:
		pos, ok := revisionFields.seek(int(d.state), name)
		if !ok {
			d.capture = false
			return
		}
		d.state = revisionState(pos)
		if d.state == revisionContributor {
			d.capture = false
			d.contrib.HandleStartElement(ctl, name, attrs)
			return
		}
		d.open()
		_, d.deleted = attr(attrs, "deleted")
		if d.state == revisionText {
			if n, ok := attr(attrs, "bytes"); ok {
				if size, err := ParseUint64(n); err == nil && size < 1<<31 {
					d.text.grow(int(size))
				}
			}
		}
	}
}

func (d *RevisionDecoder) HandleCharData(ctl Control, text []byte) {
	if d.contrib.active() {
		d.contrib.HandleCharData(ctl, text)
		return
	}
	d.chardata(text)
}

func (d *RevisionDecoder) HandleEndElement(ctl Control, name string) {
	if d.contrib.active() {
		d.contrib.HandleEndElement(ctl, name)
		d.depth--
		if !d.contrib.active() {
			d.revision.Contributor = d.contrib.Contributor()
			d.state = revisionMinor
		}
		return
	}

	switch {
	case d.depth == 2 && d.capture:
		d.capture = false
		d.assign(name)
		d.state++
	case d.depth == 1 && !d.stamped:
		d.report.fail("revision", "timestamp", "", ErrMissingField)
	}
	d.depth--
}

func (d *RevisionDecoder) assign(name string) {
	text := d.text.String()
	switch d.state {
	case revisionID:
		v, err := ParseUint64(text)
		if err == nil && v == 0 {
			err = ErrBadNumber
		}
		if err != nil {
			d.report.fail("revision", name, text, err)
			return
		}
		d.revision.ID = v
	case revisionParentID:
		if v, err := ParseUint64(text); err != nil {
			d.report.fail("revision", name, text, err)
		} else {
			d.revision.ParentID = &v
		}
	case revisionTimestamp:
		d.stamped = true
		if ts, err := ParseTimestamp(text); err != nil {
			d.report.fail("revision", name, text, err)
		} else {
			d.revision.Timestamp = ts
		}
	case revisionMinor:
		d.revision.Minor = true
	case revisionComment:
		if !d.deleted {
			d.revision.Comment = &text
		}
	case revisionModel:
		d.revision.Model = text
	case revisionFormat:
		d.revision.Format = text
	case revisionText:
		d.revision.Text = text
	case revisionSHA1:
		d.revision.SHA1 = text
	}
}
