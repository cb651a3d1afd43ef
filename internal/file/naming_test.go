package file

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var timestampedKey = regexp.MustCompile(`^\d{8}_\d{6}_.+$`)

func TestStrictName(t *testing.T) {
	cases := map[string]string{
		"photo.png":              "photo.png",
		"My Holiday Photo.JPG":   "My_Holiday_Photo.JPG",
		"../../etc/passwd":       "passwd",
		`C:\Users\me\report.pdf`: "report.pdf",
		"résumé final.pdf":       "resume_final.pdf",
		"фото.png":               "upload.png",
		".bashrc":                "upload.bashrc",
		"___":                    "upload",
		"":                       "upload",
		"song (live) [2019].mp3": "song_live_2019.mp3",
		"archive.tar.gz":         "archive.tar.gz",
		"trailing dot.":          "trailing_dot",
	}
	for in, want := range cases {
		assert.Equal(t, want, StrictName(in, time.Time{}), in)
	}
}

func TestStrictNameIsIdempotent(t *testing.T) {
	inputs := []string{
		"photo.png", "a b\tc.txt", "../x/../y.gif", "ünïcödé.mp4", "..", "._a_.", "a..b",
		"a._png", "x.-", "name\x00with\x01controls.raw", "  spaced  out  .jpeg ",
	}
	for _, in := range inputs {
		once := StrictName(in, time.Time{})
		assert.Equal(t, once, StrictName(once, time.Time{}), in)
	}
}

func TestTimestampedName(t *testing.T) {
	at := time.Date(2024, time.October, 5, 14, 3, 9, 0, time.UTC)

	key := TimestampedName("My File.png", at)

	assert.Equal(t, "20241005_140309_My File.png", key)
	assert.Regexp(t, timestampedKey, key)
	assert.True(t, strings.HasSuffix(key, "My File.png"))
}

func TestTimestampedNameUsesUTC(t *testing.T) {
	zone := time.FixedZone("UTC+3", 3*60*60)
	at := time.Date(2024, time.October, 5, 1, 0, 0, 0, zone)

	assert.Equal(t, "20241004_220000_a.txt", TimestampedName("a.txt", at))
}
