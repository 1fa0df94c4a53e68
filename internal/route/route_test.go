package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		link string
		want Route
	}{
		{"", Feed()},
		{"/", Feed()},
		{"https://techfirstsearch.com/", Feed()},
		{"techfirstsearch://", Feed()},
		{"article/42", Article(42)},
		{"/article/42/", Article(42)},
		{"ARTICLE/7", Article(7)},
		{"https://techfirstsearch.com/article/42?utm=x", Article(42)},
		{"techfirstsearch://article/42", Article(42)},
		{"article", Article(0)},
		{"article/abc", Article(0)},
		{"article/-1", Article(0)},
		{"privacy", Privacy()},
		{"/privacy#top", Privacy()},
		{"techfirstsearch://privacy", Privacy()},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			got, err := Parse(tt.link)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Unknown(t *testing.T) {
	for _, link := range []string{"settings", "article/1/comments", "privacy/extra", "ftp://host/article/1", "mailto://x"} {
		_, err := Parse(link)
		assert.ErrorIs(t, err, ErrUnknownRoute, link)
	}
}

func TestRouteString(t *testing.T) {
	assert.Equal(t, "/", Feed().String())
	assert.Equal(t, "article/42", Article(42).String())
	assert.Equal(t, "privacy", Privacy().String())
	assert.Equal(t, "article", Article(3).Kind.String())
}

func TestStringRoundTrip(t *testing.T) {
	for _, r := range []Route{Feed(), Article(9), Privacy()} {
		got, err := Parse(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
}
