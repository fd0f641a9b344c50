// Command xrefctl converts part-number lists and maintains the portfolio file
// from the command line.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
