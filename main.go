// Package main is the entry point for the matchstats CLI, which ingests match
// result batches into a per-player statistics ledger and predicts upcoming matches.
package main

import "github.com/pable/go-match-stats/cmd"

func main() {
	cmd.Execute()
}
