package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dedupeTerm string

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Merge portfolio rows that share a Syskomp neu number",
	RunE:  runDedupe,
}

func init() {
	dedupeCmd.Flags().StringVar(&dedupeTerm, "term", "", "only merge groups containing this number")
}

func runDedupe(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	n, err := svc.Dedupe(cmd.Context(), dedupeTerm)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d duplicate rows merged\n", n)
	return nil
}
