//go:build mage

package main

import "github.com/magefile/mage/sh"

// Extract runs the built CLI over notes/ and writes findings/.
func Extract() error {
	ensureBuilt()
	return sh.RunV(binPath(), "extract")
}
