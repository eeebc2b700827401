//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Stage runs single pipeline stages through the built binary.
type Stage mg.Namespace

func bin() string { return filepath.Join(binDir, binName) }

// Retrieve downloads the template named by a descriptor file.
func (Stage) Retrieve(descriptor string) error {
	mg.Deps(Build)
	return sh.RunV(bin(), "retrieve", "-p", descriptor)
}

// Repair repairs a retrieved template.
func (Stage) Repair(descriptor string) error {
	mg.Deps(Build)
	return sh.RunV(bin(), "repair", "-p", descriptor)
}

// Align aligns a target sequence file to the template's chain.
func (Stage) Align(descriptor, target string) error {
	mg.Deps(Build)
	return sh.RunV(bin(), "align", "--template", descriptor, "--target", target)
}

// Model builds candidate models from an alignment file.
func (Stage) Model(alignment string) error {
	mg.Deps(Build)
	return sh.RunV(bin(), "model", "--alignmentname", alignment)
}

// Status shows the artifacts present for a template.
func (Stage) Status(descriptor string) error {
	mg.Deps(Build)
	return sh.RunV(bin(), "status", descriptor)
}
