// internal/collect/emailcensus/emailcensus.go
package emailcensus

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"workshift-engine/internal/collect/types"
	"workshift-engine/internal/risk"
	"workshift-engine/internal/store"
)

type Config struct {
	Addr             string // host:port
	Host             string // for TLS server name
	Username         string
	Password         string
	Mailbox          string
	LookbackDays     int
	SearchSubjectAny []string // phrases that mark a message as a job alert
}

// Fetcher counts job-alert emails per category inside the lookback window.
// Alert volume is a weak demand signal, but it's free and it's local.
type Fetcher struct {
	Cfg Config

	now func() time.Time
}

func New(cfg Config) *Fetcher {
	return &Fetcher{Cfg: cfg, now: time.Now}
}

func (f *Fetcher) Name() string { return "email" }

func (f *Fetcher) Fetch(ctx context.Context) (types.CollectResult, error) {
	res := types.CollectResult{Source: f.Name()}

	c, err := dialAndLogin(ctx, f.Cfg)
	if err != nil {
		return res, err
	}
	defer func() { _ = c.Logout().Wait() }()

	if _, err := c.Select(f.Cfg.Mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return res, fmt.Errorf("imap select %s: %w", f.Cfg.Mailbox, err)
	}

	lookback := f.Cfg.LookbackDays
	if lookback <= 0 {
		lookback = 7
	}
	since := f.now().UTC().AddDate(0, 0, -lookback)

	subjects, err := alertSubjects(ctx, c, since, f.Cfg.SearchSubjectAny)
	if err != nil {
		return res, err
	}

	counts := map[string]float64{}
	for _, subj := range subjects {
		counts[risk.CategoryForTitle(subj)]++
	}

	day := f.now().UTC().Format("2006-01-02")
	for category, n := range counts {
		res.Observations = append(res.Observations, store.Observation{
			SourceID: fmt.Sprintf("email:%s:%s", category, day),
			RoleID:   category,
			Category: category,
			Ts:       day,
			Demand:   n,
			Source:   f.Name(),
		})
	}
	return res, nil
}

func dialAndLogin(ctx context.Context, cfg Config) (*imapclient.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("imap addr is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("imap username/password is required")
	}

	c, err := imapclient.DialTLS(cfg.Addr, &imapclient.Options{
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: cfg.Host,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}

	// Best-effort close on context cancel.
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	if err := c.Login(cfg.Username, cfg.Password).Wait(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	return c, nil
}

// alertSubjects returns the subject line of every message since the cutoff
// whose subject contains one of the alert phrases.
func alertSubjects(ctx context.Context, c *imapclient.Client, since time.Time, phrases []string) ([]string, error) {
	searchData, err := c.UIDSearch(&imap.SearchCriteria{Since: since}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	fetchCmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:      true,
		Envelope: true,
	})
	defer func() { _ = fetchCmd.Close() }()

	var out []string
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}
		if buf.Envelope == nil {
			continue
		}
		if matchesAny(buf.Envelope.Subject, phrases) {
			out = append(out, buf.Envelope.Subject)
		}
	}
	return out, nil
}

func matchesAny(subject string, phrases []string) bool {
	if len(phrases) == 0 {
		return false
	}
	low := strings.ToLower(subject)
	for _, p := range phrases {
		if strings.Contains(low, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
