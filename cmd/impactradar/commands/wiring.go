package commands

import (
	"fmt"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/audit"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/auth"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/events"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/ingest"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/jobs"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/marketdata"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/model"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/outcomes"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/scanners"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/scanners/earnings"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/scanners/edgar"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/scanners/fda"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/scanners/presswire"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/scoring"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/config"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/database"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/httputil"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/redis"
)

// app bundles the wiring every subcommand starts from: config, logging,
// storage, the scanner registry, and the scoring path. Commands build one,
// take what they need, and Close it on exit.
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *database.DB
	rds *redis.Client

	httpClient *httputil.Client
	cache      *redis.Cache

	eventRepo   *events.Repository
	companyRepo *events.CompanyRepository
	jobRepo     *jobs.Repository
	outcomeRepo *outcomes.Repository
	auditRepo   *audit.Repository
	userRepo    *auth.Repository
	priceRepo   *marketdata.PriceRepository
	adjustRepo  *model.AdjustmentRepository

	registry *scanners.Registry
	provider *marketdata.Provider
	scoreSvc *scoring.Service
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rds, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	a := &app{
		cfg:        cfg,
		log:        log,
		db:         db,
		rds:        rds,
		httpClient: httputil.New(cfg, log),
		cache:      redis.NewCache(rds, "radar"),
	}

	a.eventRepo = events.NewRepository(db.Pool)
	a.companyRepo = events.NewCompanyRepository(db.Pool)
	a.jobRepo = jobs.NewRepository(db.Pool)
	a.outcomeRepo = outcomes.NewRepository(db.Pool)
	a.auditRepo = audit.NewRepository(db.Pool)
	a.userRepo = auth.NewRepository(db.Pool)
	a.priceRepo = marketdata.NewPriceRepository(db.Pool)
	a.adjustRepo = model.NewAdjustmentRepository(db.Pool)

	a.provider = marketdata.NewProvider(a.priceRepo, a.companyRepo, a.cache, cfg, log)

	table := scoring.Defaults()
	if cfg.Scoring.FactorFile != "" {
		table, err = scoring.Load(cfg.Scoring.FactorFile)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("load factor table: %w", err)
		}
	}
	blender := model.NewBlender(a.adjustRepo, 0, log.Zerolog())
	a.scoreSvc = scoring.NewService(scoring.NewEngine(table), blender, log)

	a.registry = scanners.NewRegistry()
	for _, s := range []contracts.Scanner{
		edgar.New(cfg.EDGAR, a.companyRepo, a.httpClient, log),
		fda.New(cfg.FDA, a.companyRepo, a.httpClient, log),
		presswire.New(cfg.Presswire, a.httpClient, log),
		earnings.New(cfg.Earnings, a.httpClient, log),
	} {
		if err := a.registry.Register(s); err != nil {
			a.Close()
			return nil, fmt.Errorf("register scanner: %w", err)
		}
	}

	return a, nil
}

// pipeline builds the ingest pipeline. The publisher may be nil for
// commands without a live stream.
func (a *app) pipeline(publisher contracts.Publisher) *ingest.Pipeline {
	normalizer := ingest.NewNormalizer(a.companyRepo, a.log)
	return ingest.NewPipeline(
		normalizer, a.eventRepo, a.provider, a.scoreSvc,
		publisher, a.cfg.Scoring.DuplicateWindow, a.log,
	)
}

// Close releases the shared connections.
func (a *app) Close() {
	if a.rds != nil {
		if err := a.rds.Close(); err != nil {
			a.log.WithError(err).Warn("Redis close failed")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
