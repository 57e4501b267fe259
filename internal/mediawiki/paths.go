package mediawiki

import "sort"

// subrecords maps a field that opens a nested record to that record's fields.
var subrecords = map[string]fieldSet{
	"revision":                revisionFields,
	"upload":                  uploadFields,
	"contributor":             contributorFields,
	"discussionthreadinginfo": discussionFields,
}

// ElementPaths lists, sorted, the slash separated paths below <page> that
// PageDecoder reads, e.g. "revision/contributor/username". Anything else
// inside a page is skipped.
func ElementPaths() []string {
	var out []string
	var walk func(prefix string, fs fieldSet)
	walk = func(prefix string, fs fieldSet) {
		for _, name := range fs {
			if name == "" {
				continue
			}
			p := prefix + name
			out = append(out, p)
			if sub, ok := subrecords[name]; ok {
				walk(p+"/", sub)
			}
		}
	}
	walk("", pageFields)
	sort.Strings(out)
	return out
}
