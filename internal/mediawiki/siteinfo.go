package mediawiki

import (
	"encoding/xml"
	"strconv"
)

type siteInfoState int

const (
	siteInfoSiteName siteInfoState = iota
	siteInfoDBName
	siteInfoBase
	siteInfoGenerator
	siteInfoCase
	siteInfoNamespaces
	siteInfoEnd
)

var siteInfoFields = fieldSet{
	siteInfoSiteName:   "sitename",
	siteInfoDBName:     "dbname",
	siteInfoBase:       "base",
	siteInfoGenerator:  "generator",
	siteInfoCase:       "case",
	siteInfoNamespaces: "namespaces",
}

// SiteInfoDecoder decodes a <siteinfo> subtree, namespaces included.
type SiteInfoDecoder struct {
	cursor
	state  siteInfoState
	info   SiteInfo
	ns     Namespace
	inNS   bool
	report reporter
}

// SiteInfo returns the last decoded site info.
func (d *SiteInfoDecoder) SiteInfo() SiteInfo { return d.info }

func (d *SiteInfoDecoder) active() bool { return d.depth > 0 }

func (d *SiteInfoDecoder) HandleStartElement(_ Control, name string, attrs []xml.Attr) {
	d.depth++
	switch d.depth {
	case 1:
		d.info = SiteInfo{}
		d.state = siteInfoSiteName
		d.capture = false
	case 2:
		pos, ok := siteInfoFields.seek(int(d.state), name)
		if !ok {
			d.capture = false
			return
		}
		d.state = siteInfoState(pos)
		if d.state != siteInfoNamespaces {
			d.open()
		}
	case 3:
		if d.state != siteInfoNamespaces || name != "namespace" {
			return
		}
		d.ns = Namespace{}
		if key, ok := attr(attrs, "key"); ok {
			v, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				d.report.fail("namespace", "key", key, ErrBadNumber)
			}
			d.ns.Key = v
		}
		d.ns.Case, _ = attr(attrs, "case")
		d.text.reset()
		d.inNS = true
	}
}

func (d *SiteInfoDecoder) HandleCharData(_ Control, text []byte) {
	if d.inNS && d.depth == 3 {
		d.text.write(text)
		return
	}
	d.chardata(text)
}

func (d *SiteInfoDecoder) HandleEndElement(_ Control, _ string) {
	defer func() { d.depth-- }()
	switch {
	case d.depth == 3 && d.inNS:
		d.ns.Name = d.text.String()
		d.info.Namespaces = append(d.info.Namespaces, d.ns)
		d.inNS = false
	case d.depth == 2 && d.state == siteInfoNamespaces:
		d.state = siteInfoEnd
	case d.depth == 2 && d.capture:
		d.capture = false
		text := d.text.String()
		switch d.state {
		case siteInfoSiteName:
			d.info.SiteName = text
		case siteInfoDBName:
			d.info.DBName = text
		case siteInfoBase:
			d.info.Base = text
		case siteInfoGenerator:
			d.info.Generator = text
		case siteInfoCase:
			d.info.Case = text
		}
		d.state++
	}
}
