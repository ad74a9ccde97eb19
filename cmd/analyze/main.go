// Command analyze runs the acquisition and analysis stages for a single
// symbol and prints the result as JSON. It talks to the real upstream
// sources, so it doubles as a smoke test for adapter configuration.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/HinaTK/daily-stock-analysis/pkg/advisor"
	"github.com/HinaTK/daily-stock-analysis/pkg/analyzer"
	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
	"github.com/HinaTK/daily-stock-analysis/pkg/llm"

	_ "github.com/HinaTK/daily-stock-analysis/pkg/datasource/sources/eastmoney"
	_ "github.com/HinaTK/daily-stock-analysis/pkg/datasource/sources/sina"
	_ "github.com/HinaTK/daily-stock-analysis/pkg/datasource/sources/tushare"
)

var (
	symbol     = flag.String("symbol", "", "A-share symbol, e.g. 600519")
	dsFile     = flag.String("ds", "etc/datasource.yaml", "datasource config file")
	llmFile    = flag.String("llm", "", "optional llm config file; empty means rule-only decision")
	withChip   = flag.Bool("chip", false, "also fetch the chip distribution")
	timeoutStr = flag.String("timeout", "2m", "overall deadline")
)

func main() {
	flag.Parse()
	logx.Disable()

	if *symbol == "" {
		fmt.Fprintln(os.Stderr, "usage: analyze -symbol 600519 [-ds etc/datasource.yaml] [-llm etc/llm.yaml] [-chip]")
		os.Exit(2)
	}
	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		fatalf("bad -timeout: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dsCfg, err := datasource.LoadConfig(*dsFile)
	if err != nil {
		fatalf("load datasource config: %v", err)
	}
	mgr, err := dsCfg.BuildManager()
	if err != nil {
		fatalf("build manager: %v", err)
	}

	rec, err := mgr.Fetch(ctx, *symbol, datasource.KindDaily)
	if err != nil {
		fatalf("fetch daily: %v", err)
	}

	ana, err := analyzer.New(analyzer.Config{})
	if err != nil {
		fatalf("build analyzer: %v", err)
	}
	res, err := ana.Analyze(*symbol, rec.Bars)
	if err != nil {
		fatalf("analyze: %v", err)
	}

	if *withChip {
		if chipRec, err := mgr.Fetch(ctx, *symbol, datasource.KindChip); err != nil {
			fmt.Fprintf(os.Stderr, "chip fetch skipped: %v\n", err)
		} else {
			ana.ApplyChip(res, chipRec.Chip)
		}
	}

	var client llm.LLMClient
	if *llmFile != "" {
		llmCfg, err := llm.LoadConfig(*llmFile)
		if err != nil {
			fatalf("load llm config: %v", err)
		}
		client, err = llm.NewClient(llmCfg)
		if err != nil {
			fatalf("build llm client: %v", err)
		}
		defer client.Close()
	}
	decision, err := advisor.New(client).Advise(ctx, res)
	if err != nil {
		fatalf("advise: %v", err)
	}

	out := struct {
		Source   string            `json:"source"`
		Analysis *analyzer.Result  `json:"analysis"`
		Decision *advisor.Decision `json:"decision"`
	}{rec.Source, res, decision}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fatalf("encode output: %v", err)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
