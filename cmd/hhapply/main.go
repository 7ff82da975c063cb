// Command hhapply searches hh.ru vacancies matching the configured filters
// and submits applications for them, one at a time, skipping vacancies
// already applied to and stopping when the platform reports its daily limit.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/avolkov/hh-autoapply/internal/auth"
	"github.com/avolkov/hh-autoapply/internal/config"
	"github.com/avolkov/hh-autoapply/internal/engine"
	"github.com/avolkov/hh-autoapply/internal/hh"
	"github.com/avolkov/hh-autoapply/internal/letter"
	"github.com/avolkov/hh-autoapply/internal/search"
	"github.com/avolkov/hh-autoapply/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := cfg.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("starting hh-autoapply",
		slog.String("resume_id", cfg.ResumeID),
		slog.Int("page_size", cfg.PageSize),
		slog.Int("max_pages", cfg.MaxPages),
		slog.String("submit_delay", cfg.SubmitDelay.String()),
		slog.Bool("s3_mirror", cfg.S3Enabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// State backend: local JSON files, optionally mirrored to S3
	local, err := store.NewLocal(cfg.StateDir)
	if err != nil {
		return err
	}
	var backend store.Backend = local
	if cfg.S3Enabled() {
		s3Backend, err := store.NewS3(local, store.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return fmt.Errorf("create S3 state mirror: %w", err)
		}
		backend = s3Backend
		logger.Info("S3 state mirror configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
	}

	ledger := store.NewLedger(backend, cfg.AppliedFile, store.WithLedgerLogger(logger))
	if err := ledger.Load(ctx); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	tokens := store.NewTokenStore(backend, cfg.TokenFile)

	// Authorization failure here is the one fatal error of the run
	manager := auth.NewManager(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI, tokens, promptForCode,
		auth.WithOAuthURL(cfg.OAuthURL),
		auth.WithLogger(logger),
	)
	if err := manager.Ensure(ctx); err != nil {
		return fmt.Errorf("authorize: %w", err)
	}

	client, err := hh.NewClient(manager,
		hh.WithBaseURL(cfg.BaseURL),
		hh.WithUserAgent(cfg.UserAgent),
		hh.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	searcher := search.New(client, ledger,
		search.WithPerPage(cfg.PageSize),
		search.WithMaxPages(cfg.MaxPages),
		search.WithPageDelay(cfg.PageDelay),
		search.WithFilter(search.Filter{
			Include: cfg.IncludeKeywords,
			Exclude: cfg.ExcludeKeywords,
		}),
		search.WithLogger(logger),
	)

	fmt.Println("Searching vacancies...")
	vacancies := searcher.Search(ctx, hh.SearchParams{
		Text:       cfg.SearchText,
		Area:       cfg.SearchArea,
		Experience: cfg.SearchExperience,
		Employment: cfg.SearchEmployment,
		Schedule:   cfg.SearchSchedule,
		Period:     cfg.SearchPeriod,
	})

	eng := engine.New(client, ledger, letter.NewTemplateGenerator(nil), cfg.ResumeID,
		engine.WithSubmitDelay(cfg.SubmitDelay),
		engine.WithDailyCap(cfg.DailyCap),
		engine.WithConfirm(confirmPrompt),
		engine.WithLogger(logger),
	)

	_, err = eng.Run(ctx, vacancies)
	return err
}

// promptForCode prints the authorization URL and reads the callback URL the
// browser lands on after login.
func promptForCode(authURL string) (string, error) {
	fmt.Println("Authorization required.")
	fmt.Printf("Open this URL in a browser:\n\n  %s\n\n", authURL)
	fmt.Print("Paste the full callback URL here: ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirmPrompt asks before bulk submission.
func confirmPrompt(n int) bool {
	fmt.Printf("\nSubmit applications to %d vacancies? (yes/no): ", n)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "yes", "y", "да", "д":
		return true
	}
	return false
}
