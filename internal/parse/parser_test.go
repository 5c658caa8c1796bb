package parse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"jobsift-engine/internal/extract"
	"jobsift-engine/internal/usage"
)

const goodJSON = `{
	"job_title": "ML Engineer",
	"company": "Acme",
	"location": "New York, NY",
	"remote": false,
	"yoe_required": 2,
	"required_skills": ["Python", "PyTorch", "python"],
	"nice_to_have_skills": ["AWS"],
	"job_summary": "Build models."
}`

// fakeModel returns scripted responses in order, then repeats the last one.
type fakeModel struct {
	responses []fakeResponse
	calls     int
}

type fakeResponse struct {
	content string
	tokens  [2]int
	err     error
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++
	r := f.responses[i]
	if r.err != nil {
		return nil, r.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content: r.content,
		GenerationInfo: map[string]any{
			"PromptTokens":     r.tokens[0],
			"CompletionTokens": r.tokens[1],
		},
	}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, nil, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func newTestParser(model llms.Model, tracker *usage.Tracker) *Parser {
	p := New(model, Config{ModelName: "gpt-4o-mini"}, tracker)
	return p
}

func TestParseOne(t *testing.T) {
	tracker := usage.NewTracker("test")
	model := &fakeModel{responses: []fakeResponse{{content: goodJSON, tokens: [2]int{800, 200}}}}
	p := newTestParser(model, tracker)

	job, err := p.ParseOne(context.Background(), extract.Result{
		URL:  "https://boards.greenhouse.io/acme/jobs/1",
		Text: "raw posting text",
	})
	require.NoError(t, err)
	assert.Equal(t, "ML Engineer", job.Title)
	assert.Equal(t, "Acme", job.Company)
	assert.Equal(t, 2, job.YearsExperience)
	// normalized: lowercased, deduped
	assert.Equal(t, []string{"python", "pytorch"}, job.RequiredSkills)
	assert.Equal(t, []string{"aws"}, job.PreferredSkills)
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/1", job.SourceURL)
	assert.Equal(t, "greenhouse.io", job.SourceDomain)

	report := tracker.Finalize()
	assert.Equal(t, 1, report.LLMRequestsMade)
	assert.Equal(t, 800, report.LLMTokensPrompt)
	assert.Equal(t, 200, report.LLMTokensCompletion)
	assert.Equal(t, 1000, report.LLMTokensTotal)
}

func TestParseOneStripsCodeFences(t *testing.T) {
	model := &fakeModel{responses: []fakeResponse{{content: "```json\n" + goodJSON + "\n```"}}}
	p := newTestParser(model, nil)

	job, err := p.ParseOne(context.Background(), extract.Result{URL: "https://x.example/1", Text: "t"})
	require.NoError(t, err)
	assert.Equal(t, "ML Engineer", job.Title)
}

func TestParseOneRetriesMalformedJSON(t *testing.T) {
	tracker := usage.NewTracker("test")
	model := &fakeModel{responses: []fakeResponse{
		{content: "not json at all", tokens: [2]int{500, 50}},
		{content: goodJSON, tokens: [2]int{500, 150}},
	}}
	p := New(model, Config{ModelName: "gpt-4o-mini"}, tracker)
	p.maxAttempts = 3
	p.backoff = time.Millisecond

	job, err := p.ParseOne(context.Background(), extract.Result{URL: "https://x.example/1", Text: "t"})
	require.NoError(t, err)
	assert.Equal(t, "ML Engineer", job.Title)
	assert.Equal(t, 2, model.calls)

	// tokens from the failed attempt still count toward spend
	report := tracker.Finalize()
	assert.Equal(t, 2, report.LLMRequestsMade)
	assert.Equal(t, 1, report.LLMRequestsFailed)
	assert.Equal(t, 1000, report.LLMTokensPrompt)
	assert.Equal(t, 200, report.LLMTokensCompletion)
}

func TestParseOneExhaustsAttempts(t *testing.T) {
	model := &fakeModel{responses: []fakeResponse{{err: errors.New("rate limited")}}}
	p := newTestParser(model, nil)
	p.backoff = time.Millisecond

	_, err := p.ParseOne(context.Background(), extract.Result{URL: "https://x.example/1", Text: "t"})
	require.Error(t, err)
	assert.Equal(t, 3, model.calls)
}

func TestParseOneTruncatesContent(t *testing.T) {
	model := &fakeModel{responses: []fakeResponse{{content: goodJSON}}}
	p := newTestParser(model, nil)
	p.maxContent = 100

	long := make([]byte, 10000)
	for i := range long {
		long[i] = 'a'
	}
	_, err := p.ParseOne(context.Background(), extract.Result{URL: "https://x.example/1", Text: string(long)})
	require.NoError(t, err)
}

func TestDecodeJobRejectsMissingTitle(t *testing.T) {
	_, err := decodeJob(`{"company": "Acme"}`, "https://x.example/1")
	assert.Error(t, err)
}
