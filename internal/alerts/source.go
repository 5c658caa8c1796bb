package alerts

import (
	"context"
	"fmt"
	"log"

	"github.com/emersion/go-imap/v2"

	"jobsift-engine/internal/config"
	"jobsift-engine/internal/domain"
	"jobsift-engine/internal/secrets"
)

// Source turns job-alert emails into candidates, as a supplement to API
// search. Processed messages are marked seen so reruns don't re-mine them.
type Source struct {
	cfg config.Alerts
}

func NewSource(cfg config.Alerts) *Source {
	return &Source{cfg: cfg}
}

// Fetch connects to the mailbox, mines unseen alert emails for posting
// links, and marks the mined messages seen.
func (s *Source) Fetch(ctx context.Context, sites []string) ([]domain.Candidate, error) {
	password, err := secrets.IMAPPassword(s.cfg.Username, s.cfg.IMAPHost)
	if err != nil {
		return nil, err
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.IMAPHost, s.cfg.IMAPPort)
	c, err := Dial(ctx, addr, s.cfg.Username, password)
	if err != nil {
		return nil, err
	}
	defer LogoutAndClose(c)

	if err := SelectMailbox(c, s.cfg.Mailbox); err != nil {
		return nil, err
	}

	msgs, err := FetchUnseen(ctx, c, s.cfg.MaxMessages)
	if err != nil {
		return nil, err
	}

	var cands []domain.Candidate
	var processed []imap.UID
	for _, msg := range msgs {
		if !SubjectMatches(msg.Subject, s.cfg.SearchSubjectAny) {
			continue
		}
		got := ExtractCandidates(msg, sites)
		cands = append(cands, got...)
		processed = append(processed, msg.UID)
		log.Printf("[alerts] subject=%q links=%d", msg.Subject, len(got))
	}

	if err := MarkSeen(c, processed); err != nil {
		log.Printf("[alerts] mark seen: %v", err)
	}
	return cands, nil
}
