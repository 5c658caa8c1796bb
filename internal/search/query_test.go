package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jobsift-engine/internal/domain"
)

func TestBuildQuery(t *testing.T) {
	t.Run("quotes multiword keywords", func(t *testing.T) {
		q := BuildQuery([]string{"machine learning engineer", "nlp"}, nil)
		assert.Equal(t, `("machine learning engineer" OR nlp)`, q)
	})

	t.Run("adds site group", func(t *testing.T) {
		q := BuildQuery([]string{"data scientist"}, []string{"greenhouse.io", "lever.co"})
		assert.Equal(t, `("data scientist") (site:greenhouse.io OR site:lever.co)`, q)
	})

	t.Run("skips blank entries", func(t *testing.T) {
		q := BuildQuery([]string{" ", "nlp"}, []string{"", "lever.co"})
		assert.Equal(t, `(nlp) (site:lever.co)`, q)
	})
}

func TestDedupeByURL(t *testing.T) {
	cands := dedupeByURL([]domain.Candidate{
		{URL: "https://a.example/1"},
		{URL: "https://a.example/1"},
		{URL: ""},
		{URL: "https://a.example/2"},
	})
	assert.Len(t, cands, 2)
	assert.Equal(t, "https://a.example/1", cands[0].URL)
	assert.Equal(t, "https://a.example/2", cands[1].URL)
}
