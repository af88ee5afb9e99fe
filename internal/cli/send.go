package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/helsinkigse/seminar-digest/internal/config"
	"github.com/helsinkigse/seminar-digest/internal/digest"
	"github.com/helsinkigse/seminar-digest/internal/event"
	"github.com/helsinkigse/seminar-digest/internal/mailer"
	"github.com/helsinkigse/seminar-digest/internal/store"
	"github.com/helsinkigse/seminar-digest/internal/token"
)

// writePreview renders the digest for the given events and writes the HTML to
// a file, for eyeballing the layout without sending anything.
func writePreview(path string, events []event.Event) error {
	html, err := digest.Render(events, "#")
	if err != nil {
		return fmt.Errorf("rendering digest preview: %w", err)
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("writing digest preview: %w", err)
	}
	return nil
}

// sendTestDigest sends the scraped events as a digest to a single address,
// bypassing the subscriber list and the sent log.
func sendTestDigest(ctx context.Context, cfg *config.Config, log *zap.Logger, events []event.Event, to string) error {
	if err := cfg.RequireMailer(); err != nil {
		return err
	}

	html, err := digest.Render(events, "#")
	if err != nil {
		return fmt.Errorf("rendering test digest: %w", err)
	}

	if flagDryRun {
		log.Info("dry run: would send test digest",
			zap.String("to", to), zap.Int("events", len(events)))
		return nil
	}

	m := mailer.New(cfg.SendGridAPIKey, cfg.EmailFrom, log)
	if err := m.SendDigest(ctx, to, digest.Subject(time.Now()), html, ""); err != nil {
		return fmt.Errorf("sending test digest: %w", err)
	}
	log.Info("sent test digest", zap.String("to", to))
	return nil
}

// sendDigests sends this week's still-unsent events to every active
// subscriber. A failure for one subscriber is logged and does not stop the
// run; successfully sent events are recorded so the next run skips them.
func sendDigests(ctx context.Context, cfg *config.Config, log *zap.Logger, st *store.Store) error {
	if err := cfg.RequireMailer(); err != nil {
		return err
	}
	if cfg.SecretKey == "" || cfg.AppBaseURL == "" {
		return errors.New("SECRET_KEY and APP_BASE_URL are required to build unsubscribe links")
	}

	m := mailer.New(cfg.SendGridAPIKey, cfg.EmailFrom, log)
	tokens := token.NewManager(cfg.SecretKey)

	subs, err := st.ActiveSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("loading subscribers: %w", err)
	}

	now := time.Now()
	subject := digest.Subject(now)
	sent := 0
	for _, sub := range subs {
		events, err := st.UnsentEvents(ctx, sub.ID, now)
		if err != nil {
			log.Error("loading unsent events failed",
				zap.String("email", sub.Email), zap.Error(err))
			continue
		}
		if len(events) == 0 {
			continue
		}

		unsubscribe := unsubscribeURL(cfg.AppBaseURL, tokens, sub.Email)
		html, err := digest.Render(events, unsubscribe)
		if err != nil {
			log.Error("rendering digest failed",
				zap.String("email", sub.Email), zap.Error(err))
			continue
		}

		if flagDryRun {
			log.Info("dry run: would send digest",
				zap.String("email", sub.Email), zap.Int("events", len(events)))
			continue
		}

		if err := m.SendDigest(ctx, sub.Email, subject, html, unsubscribe); err != nil {
			log.Error("sending digest failed",
				zap.String("email", sub.Email), zap.Error(err))
			continue
		}

		hashes := make([]string, len(events))
		for i, e := range events {
			hashes[i] = e.Hash()
		}
		if err := st.MarkSent(ctx, sub.ID, hashes); err != nil {
			log.Error("recording sent events failed",
				zap.String("email", sub.Email), zap.Error(err))
			continue
		}
		sent++
	}

	log.Info("digest run complete",
		zap.Int("sent", sent), zap.Int("subscribers", len(subs)))
	return nil
}

func unsubscribeURL(baseURL string, tokens *token.Manager, email string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", tokens.Generate(email, token.ActionUnsubscribe))
	return strings.TrimRight(baseURL, "/") + "/unsubscribe?" + q.Encode()
}
