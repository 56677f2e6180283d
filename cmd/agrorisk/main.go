// Command agrorisk runs the comprehensive analysis of one snapshot file and
// prints the report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dd0wney/agrorisk/pkg/analysis"
	"github.com/dd0wney/agrorisk/pkg/logging"
	"github.com/dd0wney/agrorisk/pkg/metrics"
	"github.com/dd0wney/agrorisk/pkg/source"
)

func main() {
	snapshotPath := flag.String("snapshot", "", "Snapshot JSON file (required)")
	asJSON := flag.Bool("json", false, "Print the raw JSON report")
	timeout := flag.Duration("timeout", analysis.DefaultTimeout, "Analysis timeout")
	verbose := flag.Bool("v", false, "Log analysis progress to stderr")
	flag.Parse()

	if *snapshotPath == "" {
		fmt.Fprintln(os.Stderr, "usage: agrorisk -snapshot investigation.json [-json] [-timeout 15s]")
		os.Exit(2)
	}

	logger := logging.NewNopLogger()
	if *verbose {
		logger = logging.NewJSONLogger(os.Stderr, logging.DebugLevel)
	}

	report, err := analyze(*snapshotPath, *timeout, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("❌ "+err.Error()))
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	fmt.Println(render(report))
}

func analyze(path string, timeout time.Duration, logger logging.Logger) (*analysis.Report, error) {
	snap, err := source.LoadFile(path)
	if err != nil {
		return nil, err
	}
	svc := analysis.NewService(source.NewMemorySource(snap), analysis.Config{Timeout: timeout}, logger, metrics.NewRegistry())
	return svc.Comprehensive(context.Background(), snap.InvestigationID)
}
