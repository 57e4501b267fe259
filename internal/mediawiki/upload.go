package mediawiki

import "encoding/xml"

type uploadState int

const (
	uploadTimestamp uploadState = iota
	uploadContributor
	uploadComment
	uploadFilename
	uploadSrc
	uploadSize
	uploadEnd
)

var uploadFields = fieldSet{
	uploadTimestamp:   "timestamp",
	uploadContributor: "contributor",
	uploadComment:     "comment",
	uploadFilename:    "filename",
	uploadSrc:         "src",
	uploadSize:        "size",
}

// UploadDecoder decodes an <upload> subtree.
type UploadDecoder struct {
	cursor
	state   uploadState
	upload  Upload
	contrib ContributorDecoder
	report  reporter
}

// Upload returns the last decoded upload.
func (d *UploadDecoder) Upload() Upload { return d.upload }

func (d *UploadDecoder) active() bool { return d.depth > 0 }

func (d *UploadDecoder) setReporter(r reporter) {
	d.report = r
	d.contrib.report = r
}

func (d *UploadDecoder) HandleStartElement(ctl Control, name string, attrs []xml.Attr) {
	d.depth++
	if d.contrib.active() {
		d.contrib.HandleStartElement(ctl, name, attrs)
		return
	}
	switch d.depth {
	case 1:
		d.upload = Upload{}
		d.state = uploadTimestamp
		d.capture = false
	case 2:
		pos, ok := uploadFields.seek(int(d.state), name)
		if !ok {
			d.capture = false
			return
		}
		d.state = uploadState(pos)
		if d.state == uploadContributor {
			d.capture = false
			d.contrib.HandleStartElement(ctl, name, attrs)
			return
		}
		d.open()
	}
}

func (d *UploadDecoder) HandleCharData(ctl Control, text []byte) {
	if d.contrib.active() {
		d.contrib.HandleCharData(ctl, text)
		return
	}
	d.chardata(text)
}

func (d *UploadDecoder) HandleEndElement(ctl Control, name string) {
	defer func() { d.depth-- }()
	if d.contrib.active() {
		d.contrib.HandleEndElement(ctl, name)
		if !d.contrib.active() {
			d.upload.Contributor = d.contrib.Contributor()
			d.state = uploadComment
		}
		return
	}
	if d.depth != 2 || !d.capture {
		return
	}
	d.capture = false
	text := d.text.String()
	switch d.state {
	case uploadTimestamp:
		if ts, err := ParseTimestamp(text); err != nil {
			d.report.fail("upload", name, text, err)
		} else {
			d.upload.Timestamp = ts
		}
	case uploadComment:
		d.upload.Comment = text
	case uploadFilename:
		d.upload.Filename = text
	case uploadSrc:
		d.upload.Src = text
	case uploadSize:
		if v, err := ParseUint64(text); err != nil {
			d.report.fail("upload", name, text, err)
		} else {
			d.upload.Size = v
		}
	}
	d.state++
}
