package bucket

import (
	"sort"
	"strings"
)

// Classifier resolves filenames to destination buckets. It is immutable
// after construction and safe for concurrent use.
type Classifier struct {
	table    map[string]string
	fallback string
}

// NewClassifier builds a classifier from assignments. Extensions are
// lowercased and stripped of a leading dot.
func NewClassifier(assignments []Assignment) *Classifier {
	table := make(map[string]string, len(assignments))
	for _, a := range assignments {
		ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(a.Extension), "."))
		if ext == "" || a.Bucket == "" {
			continue
		}
		table[ext] = a.Bucket
	}
	return &Classifier{table: table, fallback: MiscellaneousBucket}
}

// NewDefaultClassifier returns a classifier over DefaultAssignments.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(DefaultAssignments)
}

// Classify returns the bucket for filename. Names without an extension and
// unknown extensions resolve to the miscellaneous bucket.
func (c *Classifier) Classify(filename string) string {
	ext, ok := Extension(filename)
	if !ok {
		return c.fallback
	}
	if bucket, found := c.table[ext]; found {
		return bucket
	}
	return c.fallback
}

// Allowed reports whether filename carries an extension from the table.
func (c *Classifier) Allowed(filename string) bool {
	ext, ok := Extension(filename)
	if !ok {
		return false
	}
	_, found := c.table[ext]
	return found
}

// Extensions returns the allowed extension set in sorted order.
func (c *Classifier) Extensions() []string {
	exts := make([]string, 0, len(c.table))
	for ext := range c.table {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Listing returns a copy of the table for display.
func (c *Classifier) Listing() Listing {
	supported := make(map[string]string, len(c.table))
	for ext, bucket := range c.table {
		supported[ext] = bucket
	}
	return Listing{Supported: supported, Miscellaneous: c.fallback}
}

// Buckets returns every distinct bucket the classifier can emit, fallback included.
func (c *Classifier) Buckets() []string {
	seen := map[string]struct{}{c.fallback: {}}
	out := []string{c.fallback}
	for _, ext := range c.Extensions() {
		b := c.table[ext]
		if _, dup := seen[b]; dup {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	return out
}

// Extension returns the lowercased segment after the last dot.
func Extension(filename string) (string, bool) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return "", false
	}
	return strings.ToLower(filename[idx+1:]), true
}
