package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"xref-service/internal/fileio"
	"xref-service/internal/tabular"
	"xref-service/internal/xref/model"
)

var (
	inFile    string
	outFile   string
	column    string
	target    string
	modeFlag  string
	showFails bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert one column of a CSV/XLSX/XLS file to Syskomp numbers",
	RunE:  runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&inFile, "in", "i", "", "input file (required)")
	convertCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <name>-syskomp<target> next to input)")
	convertCmd.Flags().StringVarP(&column, "column", "c", "A", "column letter holding the numbers")
	convertCmd.Flags().StringVarP(&target, "target", "t", "A", "target column: A (Syskomp neu) or B (Syskomp alt)")
	convertCmd.Flags().StringVarP(&modeFlag, "mode", "m", string(model.ModeExtern), "intern or extern")
	convertCmd.Flags().BoolVar(&showFails, "show-failures", true, "list numbers that could not be converted")

	_ = convertCmd.MarkFlagRequired("in")
}

func runConvert(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(inFile)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	kind, err := fileio.DetectKind(data, inFile)
	if err != nil {
		return err
	}
	table, err := fileio.ReadTable(bytes.NewReader(data), inFile)
	if err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(inFile), err)
	}
	col, err := tabular.ColumnIndex(column)
	if err != nil {
		return err
	}
	tgt, err := model.ParseColumn(target)
	if err != nil {
		return err
	}

	ex := tabular.Extract(table, col)
	if ex.Len() == 0 {
		return fmt.Errorf("no numbers found in column %s", column)
	}
	res, err := svc.BatchConvert(ex.Tokens, tgt, model.ParseMode(modeFlag, model.ModeExtern))
	if err != nil {
		return err
	}
	outcomes := make([]tabular.Outcome, len(res.Results))
	for i, it := range res.Results {
		outcomes[i] = tabular.Outcome{Input: ex.Tokens[i], Output: it.Output, Success: it.Status == model.StatusSuccess}
	}
	out, err := tabular.Reinject(table, ex, outcomes)
	if err != nil {
		return err
	}

	if outFile == "" {
		outFile = filepath.Join(filepath.Dir(inFile), fileio.ExportName(filepath.Base(inFile), string(tgt)))
	}
	var buf bytes.Buffer
	if err := fileio.WriteTable(&buf, out, col, kind); err != nil {
		return err
	}
	if err := os.WriteFile(outFile, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%d numbers, %d converted, %d failed -> %s\n", res.Total, res.Success, res.Failed, outFile)
	if showFails {
		for _, it := range res.Results {
			if it.Status == model.StatusSuccess {
				continue
			}
			line := fmt.Sprintf("  %-20s %s", it.Input, it.Status)
			if len(it.Candidates) > 0 {
				line += " (" + strings.Join(it.Candidates, ", ") + ")"
			}
			fmt.Fprintln(w, line)
		}
	}
	return nil
}
