package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jobsift-engine/internal/domain"
)

func testProfile() domain.Profile {
	return domain.Profile{
		MaxYearsExperience:    3,
		RequiredSkills:        []string{"python", "pytorch", "sql"},
		PreferredSkills:       []string{"aws", "docker"},
		PreferredLocations:    []string{"new york"},
		ExcludedTitleKeywords: []string{"senior"},
	}
}

func TestScoreComposition(t *testing.T) {
	job := domain.StructuredJob{
		Title:           "ML Engineer",
		Location:        "New York, NY",
		YearsExperience: 2,
		RequiredSkills:  []string{"python", "pytorch"},
		PreferredSkills: []string{"aws"},
	}
	b := Score(job, testProfile())

	assert.Equal(t, 30, b.YoE)
	assert.Equal(t, 2, b.RequiredHits)
	assert.Equal(t, 10, b.Required)
	assert.Equal(t, 1, b.PreferredHits)
	assert.Equal(t, 3, b.Preferred)
	assert.Equal(t, 15, b.Location)
	assert.Equal(t, 0, b.Remote)
	assert.Equal(t, 0, b.Title)
	assert.Equal(t, 58, b.Total)
}

func TestScoreYoEPenalty(t *testing.T) {
	job := domain.StructuredJob{Title: "ML Engineer", YearsExperience: 8}
	b := Score(job, testProfile())
	assert.Equal(t, -50, b.YoE)
	// clamped at zero
	assert.Equal(t, 0, b.Total)
}

func TestScoreUnstatedYoECountsAsFit(t *testing.T) {
	// a posting that never states a requirement is not handicapped
	job := domain.StructuredJob{Title: "ML Engineer", YearsExperience: 0}
	b := Score(job, testProfile())
	assert.Equal(t, 30, b.YoE)
}

func TestScoreSkillCaps(t *testing.T) {
	profile := testProfile()
	profile.RequiredSkills = []string{"a", "b", "c", "d", "e", "f", "g"}
	job := domain.StructuredJob{
		Title:          "Engineer",
		RequiredSkills: []string{"a", "b", "c", "d", "e", "f", "g"},
	}
	b := Score(job, profile)
	assert.Equal(t, 7, b.RequiredHits)
	assert.Equal(t, 25, b.Required) // 7*5 capped
}

func TestScorePartialSkillMatch(t *testing.T) {
	profile := testProfile()
	profile.RequiredSkills = []string{"aws"}
	job := domain.StructuredJob{Title: "Engineer", RequiredSkills: []string{"aws lambda"}}
	b := Score(job, profile)
	assert.Equal(t, 1, b.RequiredHits)
}

func TestScoreRemotePoints(t *testing.T) {
	profile := testProfile()
	job := domain.StructuredJob{Title: "Engineer", Remote: true}

	b := Score(job, profile)
	assert.Equal(t, 5, b.Remote)

	profile.RemoteOnly = true
	b = Score(job, profile)
	assert.Equal(t, 10, b.Remote)
}

func TestScoreExcludedTitle(t *testing.T) {
	job := domain.StructuredJob{Title: "Senior ML Engineer", YearsExperience: 2}
	b := Score(job, testProfile())
	assert.Equal(t, -40, b.Title)
}

func TestScoreDeterministic(t *testing.T) {
	job := domain.StructuredJob{
		Title:           "ML Engineer",
		Location:        "Remote",
		YearsExperience: 1,
		RequiredSkills:  []string{"python", "sql", "aws"},
	}
	first := Score(job, testProfile())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(job, testProfile()))
	}
}

func TestEvaluateGates(t *testing.T) {
	profile := testProfile()

	good := domain.StructuredJob{
		Title:           "ML Engineer",
		YearsExperience: 2,
		RequiredSkills:  []string{"python"},
	}
	dec := Evaluate(good, profile, 30)
	assert.True(t, dec.Accept)

	dec = Evaluate(good, profile, 90)
	assert.False(t, dec.Accept)
	assert.Equal(t, "below_min_score", dec.Reason)

	profile.RemoteOnly = true
	onsite := domain.StructuredJob{
		Title:           "ML Engineer",
		Location:        "Austin, TX",
		YearsExperience: 2,
		RequiredSkills:  []string{"python", "pytorch", "sql"},
	}
	dec = Evaluate(onsite, profile, 30)
	assert.False(t, dec.Accept)
	assert.Equal(t, "not_remote", dec.Reason)
}

func TestEvaluateGeographyGate(t *testing.T) {
	profile := testProfile()

	// well-scored but located abroad: rejected regardless of score
	abroad := domain.StructuredJob{
		Title:           "ML Engineer",
		Location:        "Toronto, Canada",
		YearsExperience: 2,
		RequiredSkills:  []string{"python", "pytorch", "sql"},
	}
	dec := Evaluate(abroad, profile, 30)
	assert.False(t, dec.Accept)
	assert.Equal(t, "non_target_geography", dec.Reason)
	assert.GreaterOrEqual(t, dec.Score.Total, 30)

	// the remote flag overrides a foreign office location
	abroad.Remote = true
	dec = Evaluate(abroad, profile, 30)
	assert.True(t, dec.Accept)
}
