//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "tally"
	pkgPath = "github.com/dkoosis/tally"
)

// Default target - build the binary
var Default = Build

// Build builds the tally binary
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-ldflags", ldflags(), "-o", binDir+"/"+binName, "./cmd/tally")
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm(binDir)
}

// Test runs the test suite and pipes it through tally
func Test() error {
	return pipeThroughTally("go", "test", "-json", "./...")
}

// QA runs all quality assurance checks
func QA() {
	mg.SerialDeps(Lint.Format, Lint.Vet, Lint.Staticcheck, Test, Build)
}

// Lint namespace for linting commands
type Lint mg.Namespace

// All runs all linters
func (Lint) All() {
	mg.SerialDeps(Lint.Format, Lint.Vet, Lint.Staticcheck)
}

// Format checks code formatting
func (Lint) Format() error {
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return err
	}
	if out != "" {
		return fmt.Errorf("files need formatting:\n%s", out)
	}
	return nil
}

// Vet runs go vet
func (Lint) Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Staticcheck runs staticcheck
func (Lint) Staticcheck() error {
	if _, err := exec.LookPath("staticcheck"); err != nil {
		fmt.Println("staticcheck not found (install: go install honnef.co/go/tools/cmd/staticcheck@latest)")
		return nil
	}
	return sh.RunV("staticcheck", "./...")
}

func ldflags() string {
	commit, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	if commit == "" {
		commit = "unknown"
	}
	return fmt.Sprintf("-X %[1]s/internal/version.CommitHash=%[2]s -X %[1]s/internal/version.BuildDate=%[3]s",
		pkgPath, commit, time.Now().UTC().Format(time.RFC3339))
}

// pipeThroughTally runs cmd and feeds its go test -json output to tally.
func pipeThroughTally(name string, args ...string) error {
	mg.Deps(Build)

	producer := exec.Command(name, args...)
	consumer := exec.Command(binDir+"/"+binName, "--format", "terminal")
	pipe, err := producer.StdoutPipe()
	if err != nil {
		return err
	}
	producer.Stderr = os.Stderr
	consumer.Stdin = pipe
	consumer.Stdout = os.Stdout
	consumer.Stderr = os.Stderr

	if err := consumer.Start(); err != nil {
		return err
	}
	if err := producer.Start(); err != nil {
		return err
	}
	// tally's exit code decides the outcome; go test's mirrors it.
	_ = producer.Wait()
	return consumer.Wait()
}
