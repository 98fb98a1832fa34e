package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus what's wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Email.SearchSubjectAny = trimList(out.Email.SearchSubjectAny)
	out.Sources.Adzuna.Country = strings.ToLower(strings.TrimSpace(out.Sources.Adzuna.Country))

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	// pipeline sanity
	if out.Pipeline.Horizon <= 0 {
		res.addErr("pipeline.horizon must be > 0")
	} else if out.Pipeline.Horizon > 120 {
		res.addWarn("pipeline.horizon is very long (%d periods); bounds get meaningless out there.", out.Pipeline.Horizon)
	}
	if out.Pipeline.MinObservations < 3 {
		res.addErr("pipeline.min_observations must be >= 3")
	}
	if out.Pipeline.SeasonLength < 0 {
		res.addErr("pipeline.season_length must be >= 0 (0 disables seasonality)")
	}
	if out.Pipeline.Interval <= 0 {
		res.addErr("pipeline.interval must be > 0")
	}
	if out.Pipeline.Workers < 0 {
		res.addErr("pipeline.workers must be >= 0 (0 means one per CPU)")
	}
	if out.Pipeline.DeadlineSeconds < 0 {
		res.addErr("pipeline.deadline_seconds must be >= 0 (0 disables the deadline)")
	}

	// polling sanity
	if out.Polling.CollectSeconds <= 0 {
		res.addErr("polling.collect_seconds must be > 0")
	} else if out.Polling.CollectSeconds < 60 {
		res.addWarn("polling.collect_seconds is very low (%d) and may hit API rate limits.", out.Polling.CollectSeconds)
	}
	if out.Polling.RunSeconds <= 0 {
		res.addErr("polling.run_seconds must be > 0")
	}
	if out.Polling.RetentionDays <= 0 {
		res.addErr("polling.retention_days must be > 0")
	}

	// adzuna required fields if enabled (app_key not required here; it's in the keychain)
	if out.Sources.Adzuna.Enabled {
		if out.Sources.Adzuna.Country == "" {
			res.addErr("sources.adzuna.country is required when adzuna is enabled")
		}
		if strings.TrimSpace(out.Sources.Adzuna.AppID) == "" {
			res.addErr("sources.adzuna.app_id is required when adzuna is enabled")
		}
		if len(out.Sources.Adzuna.Categories) == 0 {
			res.addWarn("sources.adzuna.categories is empty; the collector will fetch nothing.")
		}
		for i, c := range out.Sources.Adzuna.Categories {
			if strings.TrimSpace(c.Title) == "" {
				res.addErr("sources.adzuna.categories[%d].title cannot be empty", i)
			}
			if strings.TrimSpace(c.Category) == "" {
				res.addErr("sources.adzuna.categories[%d].category cannot be empty", i)
			}
		}
	}

	if out.Sources.Boards.Enabled {
		if len(out.Sources.Boards.Boards) == 0 {
			res.addWarn("sources.boards.boards is empty; the board census will count nothing.")
		}
		for i, b := range out.Sources.Boards.Boards {
			if strings.TrimSpace(b.Slug) == "" {
				res.addErr("sources.boards.boards[%d].slug cannot be empty", i)
			}
			if strings.TrimSpace(b.Category) == "" {
				res.addErr("sources.boards.boards[%d].category cannot be empty", i)
			}
		}
	}

	// email required fields if enabled (password not required here; it's in keychain)
	if out.Email.Enabled {
		if strings.TrimSpace(out.Email.IMAPHost) == "" {
			res.addErr("email.imap_host is required when email.enabled=true")
		}
		if out.Email.IMAPPort == 0 {
			res.addErr("email.imap_port is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Username) == "" {
			res.addErr("email.username is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Mailbox) == "" {
			res.addErr("email.mailbox is required when email.enabled=true")
		}
		if out.Email.LookbackDays <= 0 {
			res.addErr("email.lookback_days must be > 0 when email.enabled=true")
		}
		if len(out.Email.SearchSubjectAny) == 0 {
			res.addWarn("email.search_subject_any is empty; the email census may count nothing.")
		}
	}

	return out, res
}
