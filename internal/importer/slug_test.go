// internal/importer/slug_test.go
package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Bio Tech":              "bio-tech",
		"BioTech":               "biotech",
		"  Anti-CD3  (clone) ":  "anti-cd3-clone",
		"Enzymes & Buffers":     "enzymes-buffers",
		"Protéines recombinées": "proteines-recombinees",
		"under_score--dash":     "under-score-dash",
		"★★★":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestSlugifyTruncates(t *testing.T) {
	slug := Slugify(strings.Repeat("ab ", 150))
	assert.LessOrEqual(t, len(slug), maxSlugBase)
	assert.False(t, strings.HasSuffix(slug, "-"))
}
