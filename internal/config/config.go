package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"jobsift-engine/internal/domain"
)

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Search struct {
		CSEID        string   `yaml:"cse_id"`
		NumResults   int      `yaml:"num_results"`
		DateRestrict string   `yaml:"date_restrict"` // d1, d3, w1, w2, m1
		Mode         string   `yaml:"mode"`          // standard | per_site | comprehensive
		Sites        []string `yaml:"sites"`
		Keywords     []string `yaml:"keywords"`
	} `yaml:"search"`

	Extract struct {
		Workers         int      `yaml:"workers"`
		TimeoutSeconds  int      `yaml:"timeout_seconds"`
		MinContentChars int      `yaml:"min_content_chars"`
		ReaderEndpoint  string   `yaml:"reader_endpoint"`
		JSHeavySites    []string `yaml:"js_heavy_sites"`
		HostReqPerSec   float64  `yaml:"host_req_per_sec"`
	} `yaml:"extract"`

	LLM struct {
		Model           string `yaml:"model"`
		MaxAttempts     int    `yaml:"max_attempts"`
		MaxContentChars int    `yaml:"max_content_chars"`
		MaxTokens       int    `yaml:"max_tokens"`
	} `yaml:"llm"`

	PreFilter struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"pre_filter"`

	Scoring struct {
		MinScore int `yaml:"min_score"`
	} `yaml:"scoring"`

	Profile domain.Profile `yaml:"profile"`

	Alerts Alerts `yaml:"alerts"`
}

// Alerts configures the optional email-alert candidate source.
type Alerts struct {
	Enabled          bool     `yaml:"enabled"`
	IMAPHost         string   `yaml:"imap_host"`
	IMAPPort         int      `yaml:"imap_port"`
	Username         string   `yaml:"username"`
	Mailbox          string   `yaml:"mailbox"`
	SearchSubjectAny []string `yaml:"search_subject_any"`
	MaxMessages      int      `yaml:"max_messages"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// Defaults fills zero values that have sane fallbacks. Called after Load so a
// sparse user config still runs.
func Defaults(cfg Config) Config {
	out := cfg
	if out.App.DataDir == "" {
		out.App.DataDir = "data"
	}
	if out.Search.NumResults <= 0 {
		out.Search.NumResults = 50
	}
	if out.Search.DateRestrict == "" {
		out.Search.DateRestrict = "d1"
	}
	if out.Search.Mode == "" {
		out.Search.Mode = "standard"
	}
	if out.Extract.Workers <= 0 {
		out.Extract.Workers = 4
	}
	if out.Extract.TimeoutSeconds <= 0 {
		out.Extract.TimeoutSeconds = 20
	}
	if out.Extract.MinContentChars <= 0 {
		out.Extract.MinContentChars = 500
	}
	if out.Extract.ReaderEndpoint == "" {
		out.Extract.ReaderEndpoint = "https://r.jina.ai"
	}
	if out.Extract.HostReqPerSec <= 0 {
		out.Extract.HostReqPerSec = 1.0
	}
	if out.LLM.Model == "" {
		out.LLM.Model = "gpt-4o-mini"
	}
	if out.LLM.MaxAttempts <= 0 {
		out.LLM.MaxAttempts = 3
	}
	if out.LLM.MaxContentChars <= 0 {
		out.LLM.MaxContentChars = 7000
	}
	if out.LLM.MaxTokens <= 0 {
		out.LLM.MaxTokens = 1500
	}
	if out.Scoring.MinScore <= 0 {
		out.Scoring.MinScore = 30
	}
	if out.Alerts.MaxMessages <= 0 {
		out.Alerts.MaxMessages = 50
	}
	return out
}
