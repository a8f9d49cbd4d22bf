package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"fundraiser/internal/adapter/repo"
	"fundraiser/internal/campaign"
	"fundraiser/internal/domain"
	"fundraiser/internal/infra"
	"fundraiser/internal/middleware"
	"fundraiser/internal/registry"
	"fundraiser/internal/report"
	"fundraiser/internal/service"
	"fundraiser/internal/storage"
)

func main() {
	var (
		tokenFlag  string
		ttlFlag    time.Duration
		exportFlag string
		outDirFlag string
		skipCheck  bool
	)

	flag.StringVar(&tokenFlag, "token", "", "issue a bearer token for this subject and exit")
	flag.DurationVar(&ttlFlag, "ttl", 24*time.Hour, "lifetime of an issued token")
	flag.StringVar(&exportFlag, "export", "", `campaign ID to export as xlsx, or "active" for a zip of every active campaign`)
	flag.StringVar(&outDirFlag, "out-dir", "exports", "directory receiving exports")
	flag.BoolVar(&skipCheck, "skip-check", false, "do not verify registry invariants after replay")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}

	if subject := strings.TrimSpace(tokenFlag); subject != "" {
		tok, err := middleware.SignJWT(cfg.JWTSecret, cfg.JWTIssuer, subject, ttlFlag)
		if err != nil {
			exitWithError(fmt.Errorf("failed to sign token: %w", err))
		}
		fmt.Println(tok)
		return
	}

	if cfg.JournalDriver != infra.JournalDriverPostgres {
		exitWithError(errors.New("ledgerctl reads the postgres journal; set JOURNAL_DRIVER=postgres"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger(cfg.AppEnv, "ledgerctl")
	journal := repo.NewJournalRepository(infra.NewSQLRunner(pool, logger))

	reg, head, err := service.Replay(ctx, journal, cfg.RegistryName, registry.Limits{
		MaxActiveCampaigns:   cfg.MaxActiveCampaigns,
		MaxSelectLimit:       cfg.MaxSelectLimit,
		DonationUpdatesLimit: cfg.DonationUpdatesLimit,
		AllowDuplicateIDs:    !cfg.EnforceUniqueCampaignIDs,
	})
	if err != nil {
		exitWithError(fmt.Errorf("failed to replay journal: %w", err))
	}

	total, active, archived := reg.Count()
	fmt.Printf("registry=%s journal_head=%d\n", cfg.RegistryName, head)
	fmt.Printf("total=%d active=%d archived=%d\n", total, active, archived)

	if !skipCheck {
		if err := reg.Check(); err != nil {
			exitWithError(fmt.Errorf("invariant check failed:\n%w", err))
		}
		fmt.Println("invariants ok")
	}

	if exportFlag != "" {
		store, err := storage.NewDir(outDirFlag)
		if err != nil {
			exitWithError(err)
		}
		if err := export(ctx, reg, store, exportFlag); err != nil {
			exitWithError(err)
		}
	}
}

func export(ctx context.Context, reg *registry.Registry, store *storage.Dir, target string) error {
	if target == "active" {
		return exportActive(ctx, reg, store)
	}
	id, err := domain.ParseID(target)
	if err != nil {
		return err
	}
	rec, err := reg.Lookup(id)
	if err != nil {
		return err
	}
	body, n, err := workbook(rec)
	if err != nil {
		return err
	}
	key, err := store.Write(ctx, report.WorkbookName(id), body)
	if err != nil {
		return err
	}
	fmt.Printf("exported %d donations to %s/%s\n", n, store.Root(), key)
	return nil
}

func exportActive(ctx context.Context, reg *registry.Registry, store *storage.Dir) error {
	_, active, _ := reg.Count()
	var files []report.File
	for offset := 0; offset < int(active); {
		page, err := reg.SelectActive(offset, reg.Limits().MaxSelectLimit)
		if err != nil {
			return err
		}
		for _, rec := range page {
			body, _, err := workbook(rec)
			if err != nil {
				return err
			}
			files = append(files, report.File{Name: report.WorkbookName(rec.ID()), Data: body})
		}
		offset += len(page)
	}
	bundle, err := report.Bundle(files)
	if err != nil {
		return err
	}
	key, err := store.Write(ctx, "active-campaigns.zip", bundle)
	if err != nil {
		return err
	}
	fmt.Printf("exported %d campaigns to %s/%s\n", len(files), store.Root(), key)
	return nil
}

func workbook(rec *campaign.Record) ([]byte, int, error) {
	var donations []domain.Donation
	rec.EachLatestDonation(func(d domain.Donation) { donations = append(donations, d) })
	body, err := report.DonationsWorkbook(rec.Snapshot(), donations)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build workbook for campaign %s: %w", rec.ID(), err)
	}
	return body, len(donations), nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
