package alerts

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobsift-engine/internal/domain"
)

// SubjectMatches reports whether the subject contains any wanted phrase
// (case-insensitive). An empty wanted list matches everything.
func SubjectMatches(subject string, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	subj := strings.ToLower(subject)
	for _, w := range wanted {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" && strings.Contains(subj, w) {
			return true
		}
	}
	return false
}

// ExtractCandidates mines job-posting links out of an alert email's HTML
// body. Only links whose host matches one of the configured sites survive;
// alert emails are mostly tracking and unsubscribe links.
func ExtractCandidates(msg Message, sites []string) []domain.Candidate {
	html := htmlPart(msg.RawMessage)
	if html == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var out []domain.Candidate
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		link := normalizeLink(href)
		if link == "" || seen[link] {
			return
		}
		host := hostOf(link)
		if host == "" || !hostMatchesAny(host, sites) {
			return
		}
		seen[link] = true
		out = append(out, domain.Candidate{
			URL:        link,
			Title:      strings.TrimSpace(sel.Text()),
			Snippet:    msg.Subject,
			SourceSite: host,
		})
	})
	return out
}

// htmlPart walks the MIME structure and returns the first text/html part, or
// the whole body for non-multipart messages.
func htmlPart(raw []byte) string {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return ""
	}

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil {
		mediaType = "text/plain"
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		body, err := io.ReadAll(io.LimitReader(msg.Body, 2<<20))
		if err != nil {
			return ""
		}
		return string(body)
	}

	mr := multipart.NewReader(msg.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err != nil {
			return ""
		}
		ct := part.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "text/html") {
			body, err := io.ReadAll(io.LimitReader(part, 2<<20))
			if err != nil {
				return ""
			}
			return string(body)
		}
	}
}

// normalizeLink unwraps common redirect/tracking params and strips query
// noise so the same posting dedups to one URL.
func normalizeLink(href string) string {
	href = strings.TrimSpace(href)
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	// LinkedIn-style wrappers carry the real link in a query param
	for _, key := range []string{"url", "u", "redirect"} {
		if inner := u.Query().Get(key); inner != "" {
			if iu, err := url.Parse(inner); err == nil && iu.Host != "" {
				u = iu
				break
			}
		}
	}

	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func hostMatchesAny(host string, sites []string) bool {
	for _, s := range sites {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}
