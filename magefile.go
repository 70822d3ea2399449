//go:build mage

package main

import (
	"github.com/magefile/mage/sh"
)

// Build compiles the meshbench binary.
func Build() error {
	return sh.RunV("go", "build", "-o", "meshbench", ".")
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Integration runs the integration tests against fake collaborator CLIs.
func Integration() error {
	return sh.RunWithV(map[string]string{"MESHBENCH_INTEGRATION": "1"},
		"go", "test", "-tags", "integration", ".")
}

// Lint runs go vet.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}
