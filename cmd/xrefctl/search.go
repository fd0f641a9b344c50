package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var asJSON bool

var searchCmd = &cobra.Command{
	Use:   "search NUMBER",
	Short: "Look a number up in every catalog column",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&asJSON, "json", false, "print the raw result as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	res, err := svc.Search(args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if !res.Found {
		fmt.Fprintf(w, "%s: nicht gefunden\n", res.SearchTerm)
		return nil
	}
	for _, m := range res.Matches {
		fmt.Fprintf(w, "%s (gefunden in %s)\n", m.SyskompNeu, m.FoundInColName)
		fmt.Fprintf(w, "  Syskomp alt: %s\n  Item: %s\n  Bosch: %s\n  Alvaris: %s / %s\n  ASK: %s\n",
			dash(m.SyskompAlt), dash(m.Item), dash(m.Bosch), dash(m.AlvarisArtnr), dash(m.AlvarisMatnr), dash(m.ASK))
		if m.Description != "" {
			fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(m.Description, "\n", "\n  "))
		}
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
