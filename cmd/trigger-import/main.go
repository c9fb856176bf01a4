// Command trigger-import loads a CSV trigger file into the triggers table of
// a catalog database so bliphunter can read it with -triggers-file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/banshee-data/bliphunter/internal/catalog"
	"github.com/banshee-data/bliphunter/internal/fsutil"
	"github.com/banshee-data/bliphunter/internal/monitoring"
	"github.com/banshee-data/bliphunter/internal/source"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		stop()
		monitoring.NewLogger(os.Stderr, log.InfoLevel).Fatal("trigger-import failed", "err", err)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	var (
		triggersFile string
		catalogPath  string
		formName     string
		ifo          string
		logLevel     string
	)
	fs := flag.NewFlagSet("trigger-import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&triggersFile, "triggers-file", "", "trigger CSV file to import")
	fs.StringVar(&catalogPath, "catalog", "", "catalog database to import into (.db, .sqlite or .sqlite3)")
	fs.StringVar(&formName, "form", "raw", "columns the file carries: raw (chisq, chisq_dof) or vetoed (reduced_chisq, newsnr)")
	fs.StringVar(&ifo, "ifo", "", "detector id to import (default first in file)")
	fs.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level, err := monitoring.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	monitoring.SetLogger(monitoring.NewLogger(stderr, level).Infof)

	if triggersFile == "" || catalogPath == "" {
		return fmt.Errorf("-triggers-file and -catalog are required")
	}
	if !catalog.IsCatalogPath(catalogPath) {
		return fmt.Errorf("catalog path %q must end in .db, .sqlite or .sqlite3", catalogPath)
	}
	var form source.Form
	switch formName {
	case "raw":
		form = source.Raw
	case "vetoed":
		form = source.Vetoed
	default:
		return fmt.Errorf("unknown -form %q (want raw or vetoed)", formName)
	}

	src := &source.CSVSource{FS: fsutil.OSFileSystem{}, Path: triggersFile, Form: form, Detector: ifo}
	triggers, err := src.FetchTriggers(ctx)
	if err != nil {
		return err
	}
	if len(triggers) == 0 {
		return fmt.Errorf("%s holds no triggers", triggersFile)
	}

	cat, err := catalog.Open(catalogPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer cat.Close()

	n, err := cat.InsertTriggers(ctx, triggers)
	if err != nil {
		return err
	}
	monitoring.Logf("imported %d %s triggers into %s", n, triggers[0].Detector, catalogPath)
	return nil
}
