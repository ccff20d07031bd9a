package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vk/cellgrid/internal/cellref"
	"github.com/vk/cellgrid/internal/ctxlog"
	"github.com/vk/cellgrid/internal/engine"
	"github.com/vk/cellgrid/internal/fn"
	"github.com/vk/cellgrid/internal/sheetfile"
	"github.com/vk/cellgrid/internal/value"
)

func newRootCmd() *cobra.Command {
	var logLevel, logFormat string

	root := &cobra.Command{
		Use:           "cellgrid",
		Short:         "Unit-aware spreadsheet formula engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	ctxWithLogger := func(cmd *cobra.Command) context.Context {
		log := newLogger(logLevel, logFormat, cmd.ErrOrStderr())
		return ctxlog.WithLogger(cmd.Context(), log)
	}

	root.AddCommand(newEvalCmd(ctxWithLogger))
	root.AddCommand(newImportCmd(ctxWithLogger))
	return root
}

func newEvalCmd(ctxWithLogger func(*cobra.Command) context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <sheet.hcl>",
		Short: "Load a sheet file, evaluate it and print every cell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxWithLogger(cmd)
			log := ctxlog.FromContext(ctx)

			sheet, err := sheetfile.Load(args[0], fn.Default())
			if err != nil {
				return err
			}

			eng := engine.New(engine.WithLogger(log))
			defer eng.Close()
			if _, err := eng.Load(ctx, sheet.Contents); err != nil {
				return fmt.Errorf("evaluating sheet %q: %w", sheet.Name, err)
			}

			return printResults(cmd, eng, sheet)
		},
	}
}

func printResults(cmd *cobra.Command, eng *engine.Engine, sheet *sheetfile.Sheet) error {
	refs := make([]cellref.Ref, 0, len(sheet.Contents))
	for ref := range sheet.Contents {
		refs = append(refs, ref)
	}
	cellref.Sort(refs)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintf(w, "CELL\tCONTENT\tRESULT\n")
	for _, ref := range refs {
		res := eng.GetCellResult(ref)
		fmt.Fprintf(w, "%s\t%s\t%s\n", ref, describeContent(sheet, ref), describeResult(res))
	}
	return w.Flush()
}

func describeContent(sheet *sheetfile.Sheet, ref cellref.Ref) string {
	content := sheet.Contents[ref]
	if content.Raw != "" {
		return content.Raw
	}
	return content.Lit.String()
}

func describeResult(res value.Result) string {
	if res.Kind == value.ResultNone {
		return "(empty)"
	}
	return res.String()
}

func newImportCmd(ctxWithLogger func(*cobra.Command) context.Context) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Convert an xlsx worksheet into a sheet file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxWithLogger(cmd)

			sheet, err := sheetfile.ImportXLSX(ctx, args[0], fn.Default())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return sheetfile.Write(out, sheet.Name, sheet.Contents)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the sheet file here instead of stdout")
	return cmd
}
