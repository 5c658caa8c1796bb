package alerts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectMatches(t *testing.T) {
	wanted := []string{"job alert", "new jobs"}
	assert.True(t, SubjectMatches("Your daily Job Alert is here", wanted))
	assert.True(t, SubjectMatches("30+ new jobs for you", wanted))
	assert.False(t, SubjectMatches("Your receipt", wanted))
	assert.True(t, SubjectMatches("anything", nil))
}

func rawEmail(htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: alerts@boards.example\r\n")
	b.WriteString("To: me@example.com\r\n")
	b.WriteString("Subject: Job Alert\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/alternative; boundary=BOUND\r\n")
	b.WriteString("\r\n")
	b.WriteString("--BOUND\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString("plain text version\r\n")
	b.WriteString("--BOUND\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n--BOUND--\r\n")
	return []byte(b.String())
}

func TestExtractCandidates(t *testing.T) {
	html := `<html><body>
		<a href="https://boards.greenhouse.io/acme/jobs/123?utm_source=alert">ML Engineer at Acme</a>
		<a href="https://jobs.lever.co/beta/456">Data Scientist at Beta</a>
		<a href="https://tracking.example/click?x=1">sponsored</a>
		<a href="https://boards.example/unsubscribe">unsubscribe</a>
		<a href="https://boards.greenhouse.io/acme/jobs/123?utm_source=other">ML Engineer at Acme (again)</a>
	</body></html>`
	msg := Message{Subject: "Job Alert", RawMessage: rawEmail(html)}

	cands := ExtractCandidates(msg, []string{"greenhouse.io", "lever.co"})
	require.Len(t, cands, 2)

	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/123", cands[0].URL)
	assert.Equal(t, "ML Engineer at Acme", cands[0].Title)
	assert.Equal(t, "Job Alert", cands[0].Snippet)
	assert.Equal(t, "boards.greenhouse.io", cands[0].SourceSite)
	assert.Equal(t, "https://jobs.lever.co/beta/456", cands[1].URL)
}

func TestExtractCandidatesUnwrapsRedirects(t *testing.T) {
	html := `<a href="https://tracking.example/redirect?url=https%3A%2F%2Fboards.greenhouse.io%2Facme%2Fjobs%2F9">wrapped</a>`
	msg := Message{Subject: "Alert", RawMessage: rawEmail(html)}

	cands := ExtractCandidates(msg, []string{"greenhouse.io"})
	require.Len(t, cands, 1)
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/9", cands[0].URL)
}

func TestExtractCandidatesNoHTMLPart(t *testing.T) {
	raw := []byte("From: a@b.c\r\nSubject: x\r\nContent-Type: text/plain\r\n\r\njust text")
	cands := ExtractCandidates(Message{RawMessage: raw}, []string{"greenhouse.io"})
	assert.Empty(t, cands)
}

func TestNormalizeLink(t *testing.T) {
	assert.Equal(t, "https://a.example/x", normalizeLink("https://a.example/x?utm=1#frag"))
	assert.Equal(t, "", normalizeLink("mailto:someone@example.com"))
	assert.Equal(t, "", normalizeLink("  "))
}

func TestHostMatchesAny(t *testing.T) {
	assert.True(t, hostMatchesAny("boards.greenhouse.io", []string{"greenhouse.io"}))
	assert.True(t, hostMatchesAny("greenhouse.io", []string{"greenhouse.io"}))
	assert.False(t, hostMatchesAny("notgreenhouse.io", []string{"greenhouse.io"}))
	assert.False(t, hostMatchesAny("boards.example", []string{"greenhouse.io"}))
}
