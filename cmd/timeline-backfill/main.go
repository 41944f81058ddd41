// Command timeline-backfill seeds rent timelines from a JSON export of the
// legacy flat rent fields. Properties that already have timeline rows are
// skipped, so the command can be re-run safely.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"rentops_backend/internal/renttimeline"
	rentservice "rentops_backend/internal/renttimeline/service"
	"rentops_backend/platform/config"
	"rentops_backend/platform/db"
	"rentops_backend/platform/logger"
	"rentops_backend/platform/validator"
)

type legacyRecord struct {
	PropertyID              string `json:"propertyId"`
	Since                   string `json:"since"`
	KmCents                 int64  `json:"kmCents"`
	BkCents                 int64  `json:"bkCents"`
	HkCents                 int64  `json:"hkCents"`
	MietsteuerCents         int64  `json:"mietsteuerCents"`
	UnternehmenssteuerCents int64  `json:"unternehmenssteuerCents"`
	MuellCents              int64  `json:"muellCents"`
	StromCents              int64  `json:"stromCents"`
	GasCents                int64  `json:"gasCents"`
	WasserCents             int64  `json:"wasserCents"`
}

func main() {
	file := flag.String("file", "legacy_rents.json", "path to the legacy rent export")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting timeline backfill", "file", *file)

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Error("failed to read export file", "error", err)
		panic("failed to read export file: " + err.Error())
	}

	var records []legacyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Error("failed to parse export file", "error", err)
		panic("failed to parse export file: " + err.Error())
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	svc := renttimeline.NewModule(pool, validator.New(), log).Service()

	var created, skipped, failed int
	for _, record := range records {
		if record.PropertyID == "" {
			log.Warn("record without propertyId skipped")
			skipped++
			continue
		}

		ok, err := svc.BackfillFromLegacy(ctx, record.PropertyID, rentservice.LegacyRent{
			Since:                   record.Since,
			KmCents:                 record.KmCents,
			BkCents:                 record.BkCents,
			HkCents:                 record.HkCents,
			MietsteuerCents:         record.MietsteuerCents,
			UnternehmenssteuerCents: record.UnternehmenssteuerCents,
			MuellCents:              record.MuellCents,
			StromCents:              record.StromCents,
			GasCents:                record.GasCents,
			WasserCents:             record.WasserCents,
		})
		if err != nil {
			log.Error("backfill failed", "propertyId", record.PropertyID, "error", err)
			failed++
			continue
		}
		if ok {
			created++
		} else {
			skipped++
		}
	}

	log.Info("timeline backfill complete", "created", created, "skipped", skipped, "failed", failed)
}
