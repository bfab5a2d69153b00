//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Index ingests findings/ into the SQLite store and writes the YAML export.
func Index() error {
	ensureBuilt()
	return sh.RunV(binPath(), "findings", "store")
}

// Pipeline extracts findings from notes and indexes them.
func Pipeline() {
	mg.SerialDeps(Extract, Index)
}
