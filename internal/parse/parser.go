package parse

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"jobsift-engine/internal/domain"
	"jobsift-engine/internal/extract"
	"jobsift-engine/internal/usage"
)

const systemPrompt = `You are a precise job posting parser. Given the raw text of a job posting page, extract the fields below and respond with ONLY a JSON object, no prose.

Fields:
  job_title, company, location, remote (boolean), employment_type,
  salary_range, yoe_required (integer, 0 if unstated),
  required_skills (array of strings), nice_to_have_skills (array of strings),
  education, responsibilities (array), qualifications (array),
  benefits (array), job_summary (2-3 sentences), apply_url, date_posted.

Rules:
- Use empty string / empty array / 0 / false for anything the posting does not state.
- Skills are short lowercase tokens ("python", "pytorch"), not sentences.
- Do not invent information.`

// Parser turns extracted page text into a StructuredJob via an LLM in JSON
// mode. The model is injected so tests can fake it.
type Parser struct {
	model       llms.Model
	modelName   string
	maxAttempts int
	maxContent  int
	maxTokens   int
	backoff     time.Duration
	tracker     *usage.Tracker
}

type Config struct {
	ModelName       string
	MaxAttempts     int
	MaxContentChars int
	MaxTokens       int
}

func New(model llms.Model, cfg Config, tracker *usage.Tracker) *Parser {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.MaxContentChars <= 0 {
		cfg.MaxContentChars = 7000
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1500
	}
	return &Parser{
		model:       model,
		modelName:   cfg.ModelName,
		maxAttempts: cfg.MaxAttempts,
		maxContent:  cfg.MaxContentChars,
		maxTokens:   cfg.MaxTokens,
		backoff:     time.Second,
		tracker:     tracker,
	}
}

// ParseOne structures a single page. Retries transient model errors and
// malformed JSON with backoff; a page that never parses is an error, not a
// crash.
func (p *Parser) ParseOne(ctx context.Context, res extract.Result) (domain.StructuredJob, error) {
	content := res.Text
	if len(content) > p.maxContent {
		content = content[:p.maxContent]
	}

	prompt := systemPrompt + "\n\nJob posting URL: " + res.URL + "\n\nJob posting text:\n" + content

	var lastErr error
	backoff := p.backoff
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		job, err := p.callModel(ctx, prompt, res.URL)
		if err == nil {
			return job, nil
		}
		lastErr = err
		log.Printf("[parse] attempt=%d url=%q err=%v", attempt, res.URL, err)
		if ctx.Err() != nil {
			return domain.StructuredJob{}, ctx.Err()
		}
		if attempt < p.maxAttempts {
			select {
			case <-ctx.Done():
				return domain.StructuredJob{}, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return domain.StructuredJob{}, fmt.Errorf("llm parse exhausted %d attempts: %w", p.maxAttempts, lastErr)
}

func (p *Parser) callModel(ctx context.Context, prompt, sourceURL string) (domain.StructuredJob, error) {
	resp, err := p.model.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		llms.WithModel(p.modelName),
		llms.WithJSONMode(),
		llms.WithTemperature(0.1),
		llms.WithMaxTokens(p.maxTokens),
	)
	if err != nil {
		if p.tracker != nil {
			p.tracker.LogLLMRequest(false, 0, 0, err.Error())
		}
		return domain.StructuredJob{}, fmt.Errorf("llm request: %w", err)
	}
	if len(resp.Choices) == 0 {
		if p.tracker != nil {
			p.tracker.LogLLMRequest(false, 0, 0, "no choices returned")
		}
		return domain.StructuredJob{}, fmt.Errorf("llm returned no choices")
	}

	choice := resp.Choices[0]
	promptTokens := infoInt(choice.GenerationInfo, "PromptTokens")
	completionTokens := infoInt(choice.GenerationInfo, "CompletionTokens")

	job, err := decodeJob(choice.Content, sourceURL)
	if p.tracker != nil {
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}
		p.tracker.LogLLMRequest(err == nil, promptTokens, completionTokens, errMsg)
	}
	if err != nil {
		return domain.StructuredJob{}, err
	}
	return job, nil
}

// decodeJob unmarshals the model output and normalizes it. Malformed JSON is
// a retryable error; the model occasionally wraps its output in code fences.
func decodeJob(raw, sourceURL string) (domain.StructuredJob, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var job domain.StructuredJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return domain.StructuredJob{}, fmt.Errorf("llm output decode: %w", err)
	}
	if strings.TrimSpace(job.Title) == "" {
		return domain.StructuredJob{}, fmt.Errorf("llm output missing job_title")
	}

	job.RequiredSkills = domain.NormalizeSet(job.RequiredSkills)
	job.PreferredSkills = domain.NormalizeSet(job.PreferredSkills)
	if job.YearsExperience < 0 {
		job.YearsExperience = 0
	}
	job.SourceURL = sourceURL
	job.SourceDomain = extract.BaseDomain(sourceURL)
	return job, nil
}

// infoInt digs a token count out of GenerationInfo, tolerating the numeric
// types different providers report.
func infoInt(info map[string]any, key string) int {
	if info == nil {
		return 0
	}
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
