package svc

import (
	"log"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	zerocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"github.com/HinaTK/daily-stock-analysis/internal/cache"
	"github.com/HinaTK/daily-stock-analysis/internal/config"
	"github.com/HinaTK/daily-stock-analysis/internal/model"
	"github.com/HinaTK/daily-stock-analysis/internal/store"
	"github.com/HinaTK/daily-stock-analysis/pkg/advisor"
	"github.com/HinaTK/daily-stock-analysis/pkg/analyzer"
	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
	"github.com/HinaTK/daily-stock-analysis/pkg/journal"
	"github.com/HinaTK/daily-stock-analysis/pkg/llm"
	"github.com/HinaTK/daily-stock-analysis/pkg/notify"
	"github.com/HinaTK/daily-stock-analysis/pkg/pipeline"
	"github.com/HinaTK/daily-stock-analysis/pkg/sector"

	// Import for side-effects: registers data source adapters
	_ "github.com/HinaTK/daily-stock-analysis/pkg/datasource/sources/eastmoney"
	_ "github.com/HinaTK/daily-stock-analysis/pkg/datasource/sources/sina"
	_ "github.com/HinaTK/daily-stock-analysis/pkg/datasource/sources/tushare"
)

type ServiceContext struct {
	Config config.Config
	TTL    cache.TTLSet

	DBConn         sqlx.SqlConn
	Redis          *redis.Redis
	DailyBarsModel model.DailyBarsModel
	Store          *store.Store

	Manager      *datasource.Manager
	Analyzer     *analyzer.Analyzer
	Advisor      *advisor.Advisor
	Notifier     *notify.Notifier
	Journal      *journal.Writer
	Orchestrator *pipeline.Orchestrator
	Sectors      *sector.Scanner // nil unless the board sweep is enabled
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{
		Config: c,
		TTL:    cache.NewTTLSet(c.TTL),
	}

	if c.DataSource.Value == nil {
		log.Fatalf("datasource config is required (set DataSource.File in the app config)")
	}
	mgr, err := c.DataSource.Value.BuildManager()
	if err != nil {
		log.Fatalf("failed to build datasource manager: %v", err)
	}
	svc.Manager = mgr

	analyzerCfg := analyzer.Config{}
	if c.Analyzer.Value != nil {
		analyzerCfg = *c.Analyzer.Value
	}
	svc.Analyzer, err = analyzer.New(analyzerCfg)
	if err != nil {
		log.Fatalf("failed to build analyzer: %v", err)
	}

	// The LLM adviser is optional; without it every decision comes from
	// the rule mapping.
	var client llm.LLMClient
	if c.LLM.Value != nil {
		client, err = llm.NewClient(c.LLM.Value)
		if err != nil {
			log.Fatalf("failed to build llm client: %v", err)
		}
	}
	svc.Advisor = advisor.New(client)

	if c.Notify.Value != nil {
		channels, err := c.Notify.Value.Build()
		if err != nil {
			log.Fatalf("failed to build notify channels: %v", err)
		}
		if len(channels) > 0 {
			svc.Notifier = notify.NewNotifier(channels, c.Notify.Value.MinAction)
		}
	}

	if c.Postgres.DSN == "" {
		log.Fatalf("postgres dsn is required for the resume store")
	}
	if c.Redis.Host == "" {
		log.Fatalf("redis is required for the daily bars row cache")
	}
	svc.DBConn = sqlx.NewSqlConn("pgx", c.Postgres.DSN)
	svc.Redis = redis.MustNewRedis(c.Redis)
	cacheConf := zerocache.CacheConf{{RedisConf: c.Redis, Weight: 100}}
	svc.DailyBarsModel = model.NewDailyBarsModel(svc.DBConn, cacheConf)
	svc.Store, err = store.New(svc.DailyBarsModel, svc.Redis)
	if err != nil {
		log.Fatalf("failed to build resume store: %v", err)
	}

	svc.Journal = journal.NewWriter(c.Pipeline.JournalDir)

	pipeCfg := pipeline.Config{
		Concurrency:  c.Pipeline.Concurrency,
		QuoteEnabled: c.Pipeline.QuoteEnabled,
		ChipEnabled:  c.Pipeline.ChipEnabled,
	}
	var notifier pipeline.Notifier
	if svc.Notifier != nil {
		notifier = svc.Notifier
	}
	svc.Orchestrator, err = pipeline.New(pipeCfg, svc.Manager, svc.Store,
		&analystAdapter{analyzer: svc.Analyzer}, svc.Advisor, notifier)
	if err != nil {
		log.Fatalf("failed to build orchestrator: %v", err)
	}

	if c.Sector.Enabled {
		svc.Sectors = sector.NewScanner(sector.NewFetcher(),
			sector.NewAnalyzer(sector.Config{}), c.Sector.MaxBoards)
	}

	return svc
}
