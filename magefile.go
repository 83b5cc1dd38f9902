//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "polyglot"

var Default = Build

// Build compiles the polyglot binary into ./bin
func Build() error {
	if err := os.MkdirAll("bin", 0755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-o", filepath.Join("bin", binary), "./cmd/polyglot")
}

// BuildPortAudio compiles polyglot with microphone support (needs libportaudio)
func BuildPortAudio() error {
	if err := os.MkdirAll("bin", 0755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-tags", "portaudio", "-o", filepath.Join("bin", binary), "./cmd/polyglot")
}

// Test runs all tests with the race detector
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Install installs polyglot into GOPATH/bin
func Install() error {
	mg.Deps(Vet, Test)
	return sh.RunV("go", "install", "./cmd/polyglot")
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm("bin")
}
