//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Pipeline groups targets that run the built CLI against the live APIs.
type Pipeline mg.Namespace

func cli(args ...string) error {
	return sh.RunV(filepath.Join(binDir, binName), args...)
}

// Fetch pulls eligible posts into a new stored run.
func (Pipeline) Fetch() error {
	mg.Deps(Init, Build)
	return cli("fetch", "--metrics-textfile", "metrics/fetch.prom")
}

// Analyze filters, scores, and ranks the latest fetched run.
func (Pipeline) Analyze() error {
	mg.Deps(Init, Build)
	return cli("analyze", "--metrics-textfile", "metrics/analyze.prom")
}

// Export writes the latest ranked run to output/.
func (Pipeline) Export() error {
	mg.Deps(Init, Build)
	return cli("export", "--dir", "output")
}

// All runs every stage in one process.
func (Pipeline) All() error {
	mg.Deps(Init, Build)
	return cli("run", "--dir", "output", "--metrics-textfile", "metrics/run.prom")
}
