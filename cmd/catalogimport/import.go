package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/catalogimport/internal/config"
	"github.com/JonMunkholm/catalogimport/internal/core"
	"github.com/JonMunkholm/catalogimport/internal/logging"
	"github.com/JonMunkholm/catalogimport/internal/store"
)

type importOptions struct {
	file      string
	yes       bool
	noCreate  bool
	dryRun    bool
	chunkSize int
	workers   int
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a catalog CSV file into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.file = args[0]
			return runImport(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Create missing categories without asking")
	cmd.Flags().BoolVar(&opts.noCreate, "no-create", false, "Abort instead of creating missing categories")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Run the whole pipeline against an in-memory store")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", 0, "Products per insert (default from IMPORT_CHUNK_SIZE)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Chunks inserted at once (default from IMPORT_WORKERS)")
	cmd.MarkFlagsMutuallyExclusive("yes", "no-create")

	return cmd
}

func runImport(cmd *cobra.Command, opts importOptions) error {
	ctx := cmd.Context()

	cfg, err := config.LoadLocal()
	if err != nil {
		return withCode(exitUsage, err)
	}
	logger := newLogger(cmd)

	f, err := readFile(opts.file)
	if err != nil {
		return withCode(exitUsage, err)
	}

	importOpts := core.ImportOptions{
		ChunkSize:   cfg.Import.ChunkSize,
		Workers:     cfg.Import.Workers,
		MaxFileSize: cfg.Import.MaxFileSize,
		Logger:      logger,
		OnProgress:  newProgressPrinter(cmd.ErrOrStderr()).print,
	}
	if opts.chunkSize > 0 {
		importOpts.ChunkSize = opts.chunkSize
	}
	if opts.workers > 0 {
		importOpts.Workers = opts.workers
	}

	var (
		products   core.ProductStore
		categories core.CategoryDirectory
	)
	if opts.dryRun {
		mem := store.NewMemory()
		products, categories = mem, mem
		opts.yes = !opts.noCreate
	} else {
		if cfg.Database.URL == "" {
			return withCode(exitUsage, errors.New("DATABASE_URL is not set (use --dry-run to import without a database)"))
		}
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		pg := store.NewPostgres(pool, cfg.Database.ProductsTable, cfg.Database.CategoriesTable)
		products, categories = pg, pg
	}

	importer := core.NewImporter(products, categories, importOpts)
	result, err := importer.Import(ctx, f, confirmer(cmd, opts))

	out := cmd.OutOrStdout()
	if result != nil {
		printResult(out, result, opts.dryRun)
	}
	if err != nil {
		logger.Debug("import failed", "error", err)
		for _, reason := range core.ReasonsOf(err) {
			fmt.Fprintln(cmd.ErrOrStderr(), "  -", reason)
		}
		return withCode(exitFailure, errors.New(core.FormatUserError(err)))
	}
	if result.ErrorCount > 0 {
		return withCode(exitPartial, fmt.Errorf("%d of %d products failed", result.ErrorCount, result.TotalProcessed))
	}
	return nil
}

// confirmer answers the category question from the flags, or asks on stdin.
func confirmer(cmd *cobra.Command, opts importOptions) core.ConfirmFunc {
	return func(ctx context.Context, missing []string) (bool, error) {
		switch {
		case opts.yes:
			return true, nil
		case opts.noCreate:
			return false, nil
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "\nCategories not found: %s\nCreate them? [s/N] ", strings.Join(missing, ", "))
		answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("read answer: %w", err)
		}
		return isYes(answer), nil
	}
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "s", "sim", "y", "yes":
		return true
	default:
		return false
	}
}

func readFile(path string) (core.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return core.File{Name: filepath.Base(path), Size: int64(len(data)), Data: data}, nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return logging.New(cmd.ErrOrStderr(), level, format)
}

// progressPrinter writes phase changes as lines and redraws the insert
// percentage in place.
type progressPrinter struct {
	w    io.Writer
	last core.Phase
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w}
}

func (pp *progressPrinter) print(p core.ImportProgress) {
	if p.Phase == core.PhaseInserting && p.Phase == pp.last {
		fmt.Fprintf(pp.w, "\r  %3d%% %d/%d", p.Percent(), p.Current, p.Total)
		return
	}
	if pp.last == core.PhaseInserting {
		fmt.Fprintln(pp.w)
	}
	fmt.Fprintf(pp.w, "[%s] %s\n", p.Phase, p.Message)
	pp.last = p.Phase
}

func printResult(w io.Writer, r *core.ImportResult, dryRun bool) {
	if dryRun {
		fmt.Fprintln(w, "Dry run: nothing was written to the database.")
	}
	fmt.Fprintf(w, "Inserted: %d\nFailed: %d\nSkipped rows: %d\n", r.SuccessCount, r.ErrorCount, r.SkippedRows)
	if r.NotAttempted > 0 {
		fmt.Fprintf(w, "Not attempted: %d\n", r.NotAttempted)
	}
	if len(r.CreatedCategories) > 0 {
		fmt.Fprintf(w, "Created categories: %s\n", strings.Join(r.CreatedCategories, ", "))
	}
	for _, e := range r.Errors {
		fmt.Fprintln(w, "error:", e)
	}
	for _, e := range r.RowErrors {
		fmt.Fprintln(w, "skipped:", e)
	}
	fmt.Fprintf(w, "Duration: %s\n", r.Duration.Round(time.Millisecond))
}
