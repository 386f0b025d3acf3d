package metadata

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Corpus filenames follow {shabad_id}_{artist_name}.{ext} where shabad_id
// is all digits. Anything else carries no derivable id.
var stemPattern = regexp.MustCompile(`^\d+_.*$`)

// ParseFilename derives (shabadID, artistName) from an audio filename by
// splitting the stem on the first underscore. ok is false when the stem
// does not match the grammar, including when the id segment contains a
// non-digit.
func ParseFilename(name string) (shabadID, artistName string, ok bool) {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if !stemPattern.MatchString(stem) {
		return "", "", false
	}
	i := strings.Index(stem, "_")
	return stem[:i], stem[i+1:], true
}
