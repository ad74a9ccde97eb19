package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/HinaTK/daily-stock-analysis/internal/cli"
	"github.com/HinaTK/daily-stock-analysis/internal/config"
	"github.com/HinaTK/daily-stock-analysis/internal/svc"
	"github.com/HinaTK/daily-stock-analysis/pkg/sector"
)

var configFile = flag.String("f", "etc/daily.yaml", "the config file")

func main() {
	flag.Parse()

	c := config.MustLoad(*configFile)
	c.MustSetUp()
	defer logx.Close()

	cli.LogConfigSummary(c)

	symbols := c.Pipeline.Symbols
	if len(symbols) == 0 {
		logx.Error("no symbols configured, nothing to do")
		return
	}

	svcCtx := svc.NewServiceContext(*c)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	report, err := svcCtx.Orchestrator.Run(ctx, symbols)
	if err != nil {
		logx.Errorf("run interrupted: %v", err)
	}
	if report == nil {
		return
	}

	if path, err := svcCtx.Journal.WriteReport(report); err != nil {
		logx.Errorf("write journal: %v", err)
	} else {
		logx.Infof("journal written: %s", path)
	}

	if svcCtx.Sectors != nil {
		kinds := []sector.Kind{sector.KindIndustry}
		if c.Sector.Concepts {
			kinds = append(kinds, sector.KindConcept)
		}
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		sweep, err := svcCtx.Sectors.Run(sctx, kinds, symbols)
		cancel()
		if err != nil {
			logx.Errorf("sector sweep: %v", err)
		} else if path, err := svcCtx.Journal.WriteNamed("sectors", sweep); err != nil {
			logx.Errorf("write sector sweep: %v", err)
		} else {
			logx.Infof("sector sweep written: %s (%d boards, %d watchlist links)",
				path, len(sweep.Hot), len(sweep.Views))
		}
	}

	if svcCtx.Notifier != nil {
		// The run context may already be cancelled; give the report
		// delivery its own deadline.
		nctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		svcCtx.Notifier.NotifyReport(nctx, report)
	}

	logx.Infof("finished in %s: %s", time.Since(start).Round(time.Millisecond), report.Summary())
}
