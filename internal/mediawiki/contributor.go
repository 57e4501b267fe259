package mediawiki

import "encoding/xml"

type contributorState int

const (
	contributorUsername contributorState = iota
	contributorID
	contributorIP
	contributorEnd
)

var contributorFields = fieldSet{
	contributorUsername: "username",
	contributorID:       "id",
	contributorIP:       "ip",
}

// ContributorDecoder decodes a <contributor> subtree.
type ContributorDecoder struct {
	cursor
	state       contributorState
	contributor Contributor
	report      reporter
}

// Contributor returns the last decoded contributor.
func (d *ContributorDecoder) Contributor() Contributor { return d.contributor }

func (d *ContributorDecoder) active() bool { return d.depth > 0 }

func (d *ContributorDecoder) HandleStartElement(_ Control, name string, attrs []xml.Attr) {
	d.depth++
	switch d.depth {
	case 1:
		_, deleted := attr(attrs, "deleted")
		d.contributor = Contributor{Deleted: deleted}
		d.state = contributorUsername
		d.capture = false
	case 2:
		pos, ok := contributorFields.seek(int(d.state), name)
		if !ok {
			d.capture = false
			return
		}
		d.state = contributorState(pos)
		d.open()
	}
}

func (d *ContributorDecoder) HandleCharData(_ Control, text []byte) { d.chardata(text) }

func (d *ContributorDecoder) HandleEndElement(_ Control, name string) {
	if d.depth == 2 && d.capture {
		d.capture = false
		text := d.text.String()
		switch d.state {
		case contributorUsername:
			d.contributor.Username = &text
		case contributorID:
			if v, err := ParseUint64(text); err != nil {
				d.report.fail("contributor", name, text, err)
			} else {
				d.contributor.ID = &v
			}
		case contributorIP:
			d.contributor.IP = &text
		}
		d.state++
	}
	d.depth--
}
