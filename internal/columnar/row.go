package columnar

import (
	"golang.org/x/text/unicode/norm"

	"mwdump/internal/mediawiki"
)

// Row is one revision flattened together with the fields of its page.
// Pointer fields are optional columns.
type Row struct {
	Title        string  `parquet:"title"`
	NS           uint64  `parquet:"ns"`
	ID           uint64  `parquet:"id"`
	Redirect     *string `parquet:"redirect,optional"`
	Restrictions *string `parquet:"restrictions,optional"`

	RevID              uint64  `parquet:"rev_id"`
	RevParentID        *uint64 `parquet:"rev_parent_id,optional"`
	RevTimestamp       int64   `parquet:"rev_timestamp"`
	RevContribUsername *string `parquet:"rev_contrib_username,optional"`
	RevContribID       *uint64 `parquet:"rev_contrib_id,optional"`
	RevContribIP       *string `parquet:"rev_contrib_ip,optional"`
	RevMinor           bool    `parquet:"rev_minor"`
	RevComment         *string `parquet:"rev_comment,optional"`
	RevModel           string  `parquet:"rev_model"`
	RevFormat          string  `parquet:"rev_format"`
	RevText            string  `parquet:"rev_text"`
	RevSHA1            string  `parquet:"rev_sha1"`
}

// Columns lists the column names in schema order.
var Columns = []string{
	"title", "ns", "id", "redirect", "restrictions",
	"rev_id", "rev_parent_id", "rev_timestamp",
	"rev_contrib_username", "rev_contrib_id", "rev_contrib_ip",
	"rev_minor", "rev_comment", "rev_model", "rev_format", "rev_text", "rev_sha1",
}

// Flatten appends one row per revision of p to dst. A page without
// revisions contributes nothing.
func Flatten(dst []Row, p *mediawiki.Page, nfc bool) []Row {
	title, redirect := p.Title, p.Redirect
	if nfc {
		title = norm.NFC.String(title)
		if redirect != nil {
			r := norm.NFC.String(*redirect)
			redirect = &r
		}
	}
	for i := range p.Revisions {
		rev := &p.Revisions[i]
		dst = append(dst, Row{
			Title:        title,
			NS:           p.NS,
			ID:           p.ID,
			Redirect:     redirect,
			Restrictions: p.Restrictions,

			RevID:              rev.ID,
			RevParentID:        rev.ParentID,
			RevTimestamp:       rev.Timestamp,
			RevContribUsername: rev.Contributor.Username,
			RevContribID:       rev.Contributor.ID,
			RevContribIP:       rev.Contributor.IP,
			RevMinor:           rev.Minor,
			RevComment:         rev.Comment,
			RevModel:           rev.Model,
			RevFormat:          rev.Format,
			RevText:            rev.Text,
			RevSHA1:            rev.SHA1,
		})
	}
	return dst
}
