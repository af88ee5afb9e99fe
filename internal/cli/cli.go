package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/helsinkigse/seminar-digest/internal/config"
	"github.com/helsinkigse/seminar-digest/internal/event"
	"github.com/helsinkigse/seminar-digest/internal/filter"
	"github.com/helsinkigse/seminar-digest/internal/logger"
	"github.com/helsinkigse/seminar-digest/internal/notifier"
	"github.com/helsinkigse/seminar-digest/internal/scraper"
	"github.com/helsinkigse/seminar-digest/internal/store"
)

const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitNewEvents = 2
)

var (
	flagLimit       int
	flagProfile     string
	flagFormat      string
	flagCategories  []string
	flagRange       string
	flagStore       bool
	flagAnnounce    bool
	flagDryRun      bool
	flagSendDigests bool
	flagSendTest    string
	flagPreviewHTML string
	flagVerbose     bool
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "seminar-digest",
		Short: "Scrape and announce Helsinki GSE seminar events",
		Long: `Scrapes the Helsinki GSE events pages, extracts structured seminar data,
and optionally persists it, announces new events, and sends digest emails.
Events go to stdout; logs go to stderr.`,
		SilenceUsage: true,
	}
	root.AddCommand(newScrapeCmd())
	return root
}

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the event pages and print the extracted events",
		RunE:  runScrape,
	}

	cmd.Flags().IntVar(&flagLimit, "limit", 0, "Maximum number of event pages to fetch (0 = no limit)")
	cmd.Flags().StringVar(&flagProfile, "profile", "", "Path to a YAML scraper profile")
	cmd.Flags().StringVar(&flagFormat, "format", "json", "Output format: text or json")
	cmd.Flags().StringSliceVar(&flagCategories, "category", nil, "Only output events with this category (repeatable)")
	cmd.Flags().StringVar(&flagRange, "range", "", "Date range: this-week, next-week, or YYYY-MM-DD..YYYY-MM-DD")
	cmd.Flags().BoolVar(&flagStore, "store", false, "Persist scraped events to the database")
	cmd.Flags().BoolVar(&flagAnnounce, "announce", false, "Announce events not seen before (implies --store)")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Print announcements and digests instead of sending")
	cmd.Flags().BoolVar(&flagSendDigests, "send-digests", false, "Send the weekly digest to all active subscribers (implies --store)")
	cmd.Flags().StringVar(&flagSendTest, "send-test", "", "Send a test digest of the scraped events to this address")
	cmd.Flags().StringVar(&flagPreviewHTML, "preview-html", "", "Write the rendered digest HTML to this file")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(flagFormat)
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	level := cfg.LogLevel
	if flagVerbose {
		level = "debug"
	}
	log, err := logger.New(level, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck
	log = log.With(zap.String("run_id", uuid.NewString()))

	profile := scraper.DefaultProfile()
	if flagProfile == "" {
		flagProfile = cfg.ScraperProfile
	}
	if flagProfile != "" {
		profile, err = scraper.LoadProfile(flagProfile)
		if err != nil {
			return fmt.Errorf("loading scraper profile: %w", err)
		}
	}

	events, err := scraper.NewWithProfile(profile, log).ScrapeAll(flagLimit)
	if err != nil {
		return fmt.Errorf("scraping events: %w", err)
	}
	log.Info("scrape finished", zap.Int("events", len(events)))

	f, err := buildFilter(time.Now())
	if err != nil {
		return err
	}
	filtered := f.Apply(events)

	ctx := context.Background()
	needsStore := flagStore || flagAnnounce || flagSendDigests

	var st *store.Store
	if needsStore {
		if err := cfg.RequireDatabase(); err != nil {
			return err
		}
		db, err := store.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()
		if _, err := store.RunMigrations(db); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		st = store.New(db, log)
	}

	// New events are determined against the database as it was before this
	// run's upsert, so an announcement fires exactly once per event.
	var newEvents []event.Event
	if flagAnnounce {
		newEvents, err = unseenEvents(ctx, st, events)
		if err != nil {
			return err
		}
	}

	if needsStore {
		if _, err := st.UpsertEvents(ctx, events); err != nil {
			return fmt.Errorf("storing events: %w", err)
		}
	}

	if flagAnnounce && len(newEvents) > 0 {
		if err := announce(cfg, log, newEvents); err != nil {
			return err
		}
	}

	if flagPreviewHTML != "" {
		if err := writePreview(flagPreviewHTML, filtered); err != nil {
			return err
		}
		log.Info("wrote digest preview", zap.String("path", flagPreviewHTML))
	}

	if flagSendTest != "" {
		if err := sendTestDigest(ctx, cfg, log, filtered, flagSendTest); err != nil {
			return err
		}
	}

	if flagSendDigests {
		if err := sendDigests(ctx, cfg, log, st); err != nil {
			return err
		}
	}

	if err := WriteOutput(os.Stdout, filtered, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if flagAnnounce && len(newEvents) > 0 {
		os.Exit(ExitNewEvents)
	}
	return nil
}

// buildFilter assembles the output filter from --category and --range.
func buildFilter(now time.Time) (filter.Filter, error) {
	f := filter.Filter{Categories: flagCategories}
	if flagRange != "" {
		from, until, err := filter.ParseDateRange(flagRange, now)
		if err != nil {
			return filter.Filter{}, fmt.Errorf("parsing --range: %w", err)
		}
		f.From = &from
		f.Until = &until
	}
	return f, nil
}

// unseenEvents returns the scraped events whose hashes are not yet stored.
func unseenEvents(ctx context.Context, st *store.Store, events []event.Event) ([]event.Event, error) {
	hashes := make([]string, len(events))
	for i, e := range events {
		hashes[i] = e.Hash()
	}
	known, err := st.KnownHashes(ctx, hashes)
	if err != nil {
		return nil, fmt.Errorf("checking known events: %w", err)
	}
	var unseen []event.Event
	for _, e := range events {
		if !known[e.Hash()] {
			unseen = append(unseen, e)
		}
	}
	return unseen, nil
}

func announce(cfg *config.Config, log *zap.Logger, events []event.Event) error {
	var n notifier.Notifier
	if flagDryRun {
		n = notifier.NewDryRunNotifier()
	} else {
		tn, err := notifier.NewTwitterNotifier(notifier.Credentials{
			APIKey:       cfg.Twitter.APIKey,
			APISecret:    cfg.Twitter.APISecret,
			AccessToken:  cfg.Twitter.AccessToken,
			AccessSecret: cfg.Twitter.AccessSecret,
		})
		if err != nil {
			return fmt.Errorf("initializing announcer: %w", err)
		}
		n = tn
	}

	log.Info("announcing new events", zap.Int("count", len(events)))
	if err := n.Notify(events); err != nil {
		return fmt.Errorf("announcing events: %w", err)
	}
	return nil
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
