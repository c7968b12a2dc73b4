package genre

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Science Fiction", "science-fiction"},
		{"  Horror!! ", "horror"},
		{"Café Noir", "cafe-noir"},
		{"Sci-Fi/Fantasy", "sci-fi-fantasy"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Science Fiction", DisplayName("science-fiction"))
	assert.Equal(t, "Fantasy", DisplayName("fantasy"))
}

func TestNormalize_MergesAliasesAndDedupes(t *testing.T) {
	got := Normalize([]string{"Sci-Fi", "science fiction", "SFF", "Horror", "  "})
	assert.Equal(t, []string{"science-fiction", "fantasy", "horror"}, got)
}
