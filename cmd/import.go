package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crm/internal/importer"
	"github.com/sells-group/crm/internal/store"
)

var (
	importFile    string
	importOwner   string
	importMapping []string
	importDryRun  bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import people from a CSV or XLSX file",
	Long:  "Runs a spreadsheet through the same upload, mapping, preview and execute steps as the web flow, using automatic column mapping plus any --map overrides.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		overrides, err := parseMapping(importMapping)
		if err != nil {
			return err
		}

		st, err := initStore(ctx, "import")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		f, err := os.Open(importFile)
		if err != nil {
			return eris.Wrap(err, "open import file")
		}
		defer f.Close() //nolint:errcheck

		res, err := runImport(ctx, st, importRequest{
			Owner:     importOwner,
			Filename:  filepath.Base(importFile),
			File:      f,
			Overrides: overrides,
			Region:    cfg.Enrich.PhoneRegion,
			ChunkSize: cfg.Import.ChunkSize,
			DryRun:    importDryRun,
		}, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.String("file", importFile),
			zap.Int("success", res.Success),
			zap.Int("errors", res.Errors),
			zap.Int("skipped", res.Skipped),
		)
		return nil
	},
}

type importRequest struct {
	Owner     string
	Filename  string
	File      io.Reader
	Overrides map[string]string
	Region    string
	ChunkSize int
	DryRun    bool
}

// runImport drives one file through a session and prints the preview and
// summary to out. With DryRun it stops after validation.
func runImport(ctx context.Context, st store.Store, req importRequest, out io.Writer) (*importer.Result, error) {
	sess := importer.NewSession(req.Owner, importer.Validator{Region: req.Region})

	parsed, err := sess.Load(req.Filename, req.File)
	if err != nil {
		return nil, err
	}
	for _, msg := range parsed.Errors {
		fmt.Fprintf(out, "parse: %s\n", msg)
	}

	if len(req.Overrides) > 0 {
		mapping := sess.Mapping()
		for header, field := range req.Overrides {
			mapping[header] = field
		}
		if err := sess.SetMapping(mapping); err != nil {
			return nil, err
		}
	}
	for _, h := range parsed.Headers {
		fmt.Fprintf(out, "%-30s -> %s\n", h, sess.Mapping()[h])
	}

	rows, err := sess.ConfirmMapping()
	if err != nil {
		return nil, err
	}
	invalid := 0
	for _, v := range rows {
		if !v.Valid {
			invalid++
			fmt.Fprintf(out, "row %d: %s\n", v.Row+1, strings.Join(v.Errors, "; "))
		}
	}
	fmt.Fprintf(out, "%d rows, %d valid, %d invalid\n", len(rows), len(rows)-invalid, invalid)

	if req.DryRun {
		return &importer.Result{Total: len(rows), Errors: invalid}, nil
	}

	exec := importer.NewExecutor(st,
		importer.WithChunkSize(req.ChunkSize),
		importer.WithProgress(func(percent int) {
			fmt.Fprintf(out, "progress: %d%%\n", percent)
		}),
	)
	res, err := sess.Execute(ctx, exec, req.Owner)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "imported %d, errors %d, skipped %d of %d\n", res.Success, res.Errors, res.Skipped, res.Total)
	return res, nil
}

// parseMapping reads "Header=field" pairs.
func parseMapping(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		header, field, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(header) == "" {
			return nil, eris.Errorf("invalid --map %q, want Header=field", p)
		}
		out[strings.TrimSpace(header)] = strings.TrimSpace(field)
	}
	return out, nil
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to CSV or XLSX file (required)")
	importCmd.Flags().StringVar(&importOwner, "owner", "", "owner id to import for (required)")
	importCmd.Flags().StringArrayVar(&importMapping, "map", nil, "column override as Header=field, repeatable")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "validate without writing")
	_ = importCmd.MarkFlagRequired("file")
	_ = importCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(importCmd)
}
