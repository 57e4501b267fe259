package convert

import (
	"path/filepath"
	"strconv"
	"strings"

	"mwdump/internal/datasource"
)

// OutputExt is the extension of every converted file.
const OutputExt = ".parquet"

// Stem strips a .bz2 or .bzip2 suffix from name and then whatever extension
// remains: "enwiki.xml.bz2" and "enwiki.xml" both give "enwiki".
func Stem(name string) string {
	lower := strings.ToLower(name)
	for _, suffix := range []string{".bz2", ".bzip2"} {
		if strings.HasSuffix(lower, suffix) {
			name = name[:len(name)-len(suffix)]
			break
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// MakeTargets names one output file in dir for each source, in order. Sources
// sharing a stem are told apart by a sequence number that starts at 0 for the
// first occurrence of each stem: a.part-0.parquet, a.part-1.parquet, ...
func MakeTargets(sources []string, dir string) []string {
	next := make(map[string]int, len(sources))
	out := make([]string, len(sources))
	for i, src := range sources {
		stem := Stem(datasource.BaseName(src))
		n := next[stem]
		next[stem] = n + 1
		out[i] = filepath.Join(dir, stem+".part-"+strconv.Itoa(n)+OutputExt)
	}
	return out
}
