package collect

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"workshift-engine/internal/collect/adzuna"
	"workshift-engine/internal/collect/boards"
	"workshift-engine/internal/collect/emailcensus"
	"workshift-engine/internal/collect/types"
	"workshift-engine/internal/collect/util"
	"workshift-engine/internal/config"
	"workshift-engine/internal/secrets"
	"workshift-engine/internal/store"
)

// RunOnce runs every enabled collector once, concurrently, and stores
// whatever observations come back. A source that errors is logged and
// skipped; collection only fails as a whole when nothing was runnable.
func RunOnce(ctx context.Context, db *sql.DB, cfg config.Config, onAdded func(source string, added int)) (added int, err error) {
	limiter := util.NewHostLimiter(1.0, 2)

	var fetchers []types.Fetcher

	if cfg.Sources.Adzuna.Enabled {
		appKey, kerr := secrets.GetAdzunaAppKey(secrets.AdzunaKeyringAccount(cfg))
		if kerr != nil {
			log.Printf("[collect:adzuna] skipped: %v", kerr)
		} else {
			fetchers = append(fetchers, adzuna.New(adzuna.Config{
				Country:    cfg.Sources.Adzuna.Country,
				AppID:      cfg.Sources.Adzuna.AppID,
				AppKey:     appKey,
				Categories: mapAdzunaCategories(cfg.Sources.Adzuna.Categories),
			}, limiter))
		}
	}
	if cfg.Sources.Boards.Enabled {
		fetchers = append(fetchers, boards.New(boards.Config{
			Boards: mapBoards(cfg.Sources.Boards.Boards),
		}, limiter))
	}
	if cfg.Email.Enabled {
		password, kerr := secrets.GetIMAPPassword(secrets.IMAPKeyringAccount(cfg))
		if kerr != nil {
			log.Printf("[collect:email] skipped: %v", kerr)
		} else {
			fetchers = append(fetchers, emailcensus.New(emailcensus.Config{
				Addr:             fmt.Sprintf("%s:%d", cfg.Email.IMAPHost, cfg.Email.IMAPPort),
				Host:             cfg.Email.IMAPHost,
				Username:         cfg.Email.Username,
				Password:         password,
				Mailbox:          cfg.Email.Mailbox,
				LookbackDays:     cfg.Email.LookbackDays,
				SearchSubjectAny: cfg.Email.SearchSubjectAny,
			}))
		}
	}

	if len(fetchers) == 0 {
		return 0, fmt.Errorf("no collectors enabled")
	}

	var g errgroup.Group
	results := make(chan types.CollectResult, len(fetchers))

	for _, f := range fetchers {
		f := f

		g.Go(func() error {
			timeout := 2 * time.Minute
			if f.Name() == "boards" {
				timeout = 5 * time.Minute
			}

			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			log.Printf("[collect:%s] running", f.Name())
			res, ferr := f.Fetch(fctx)
			if ferr != nil {
				log.Printf("[collect:%s] error: %v", f.Name(), ferr)
				return nil
			}
			results <- res
			return nil
		})
	}

	_ = g.Wait()
	close(results)

	insertCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	total := 0
	for res := range results {
		srcAdded := 0
		for _, o := range res.Observations {
			ok, ierr := store.InsertObservationIgnore(insertCtx, db, o)
			if ierr != nil {
				log.Printf("[collect:%s] insert: %v", res.Source, ierr)
				continue
			}
			if ok {
				srcAdded++
			}
		}
		log.Printf("[collect] source=%s observations=%d added=%d",
			res.Source, len(res.Observations), srcAdded)
		if srcAdded > 0 && onAdded != nil {
			onAdded(res.Source, srcAdded)
		}
		total += srcAdded
	}

	return total, nil
}

func mapAdzunaCategories(in []config.AdzunaCategory) []adzuna.Category {
	out := make([]adzuna.Category, 0, len(in))
	for _, c := range in {
		out = append(out, adzuna.Category{Title: c.Title, Category: c.Category})
	}
	return out
}

func mapBoards(in []config.Board) []boards.Board {
	out := make([]boards.Board, 0, len(in))
	for _, b := range in {
		out = append(out, boards.Board{Slug: b.Slug, Name: b.Name, Category: b.Category})
	}
	return out
}
