package file

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// TimestampLayout is the YYYYMMDD_HHMMSS prefix used by TimestampedName.
const TimestampLayout = "20060102_150405"

const fallbackStem = "upload"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Naming turns a client filename into an object key.
type Naming func(original string, at time.Time) string

// StrictName reduces original to a URL-safe key, keeping its extension.
// StrictName(StrictName(x)) == StrictName(x).
func StrictName(original string, _ time.Time) string {
	name := original
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}

	name = foldASCII(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.TrimRight(name, "._")

	stem, ext := name, ""
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		stem, ext = name[:idx], name[idx+1:]
	}
	stem = strings.Trim(stem, "._")
	if stem == "" {
		stem = fallbackStem
	}
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}

// TimestampedName prefixes the untouched original with the UTC time.
func TimestampedName(original string, at time.Time) string {
	return at.UTC().Format(TimestampLayout) + "_" + original
}

func foldASCII(s string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(s) {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
