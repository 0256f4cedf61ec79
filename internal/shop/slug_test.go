package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Rose & Lily!", "rose-lily"},
		{"  Sunflower   Sunshine  ", "sunflower-sunshine"},
		{"Café Rosé", "cafe-rose"},
		{"Mother's Day -- Special", "mother-s-day-special"},
		{"100 Red Roses", "100-red-roses"},
		{"already-a-slug", "already-a-slug"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Slugify(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Regexp(t, `^([a-z0-9]+(-[a-z0-9]+)*)?$`, got)
		})
	}
}

func TestSlugFor(t *testing.T) {
	slug, err := slugFor("", "Autumn Glow")
	require.NoError(t, err)
	assert.Equal(t, "autumn-glow", slug)

	slug, err = slugFor("Custom Slug", "Autumn Glow")
	require.NoError(t, err)
	assert.Equal(t, "custom-slug", slug)

	_, err = slugFor("", "***")
	assert.True(t, IsValidation(err))
}
