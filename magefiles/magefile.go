//go:build mage

// Package main contains Mage build targets for homology-engine developer tooling.
package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the directories a working copy of the pipeline expects.
var projectDirs = []string{
	".secrets",
	".homology",
	"work",
}

// Init creates the project directory structure and a starter config file.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err := os.WriteFile(configFile, []byte(starterConfig), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", configFile, err)
		}
		fmt.Println("  ", configFile)
	}
	fmt.Println("Project directories initialized.")
	fmt.Println("Put the MODELLER license key in .secrets/modeller-license-key.")
	return nil
}

const configFile = "homology-engine.yaml"

const starterConfig = `work_dir: work
jobs: 1
repair:
  ph: 7.0
alignment:
  max_gap: 50
modeling:
  count: 5
  assess: [DOPE, GA341]
engines:
  pdbfixer_image: pdbfixer:latest
  modeller_image: modeller:latest
`

const (
	binDir  = "bin"
	binName = "homology-engine"
	cmdPkg  = "./cmd/homology-engine"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Images builds the pdbfixer and modeller engine images. The modeller
// image needs KEY_MODELLER at build time.
func Images() error {
	mg.Deps(imagePDBFixer, imageModeller)
	return nil
}

func imagePDBFixer() error {
	return sh.RunV(containerRuntime(), "build", "-t", "pdbfixer:latest", "images/pdbfixer")
}

func imageModeller() error {
	key := os.Getenv("KEY_MODELLER")
	if key == "" {
		data, err := os.ReadFile(filepath.Join(".secrets", "modeller-license-key"))
		if err != nil {
			return fmt.Errorf("modeller image needs KEY_MODELLER or .secrets/modeller-license-key")
		}
		key = strings.TrimSpace(string(data))
	}
	return sh.RunV(containerRuntime(), "build", "--build-arg", "KEY_MODELLER="+key, "-t", "modeller:latest", "images/modeller")
}

// containerRuntime prefers docker and falls back to podman.
func containerRuntime() string {
	if err := sh.Run("docker", "info"); err == nil {
		return "docker"
	}
	return "podman"
}

// Stats prints project metrics: Go production/test LOC and documentation word count.
func Stats() error {
	var prodLines, testLines, docWords int
	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(path) {
		case ".go":
			n, err := countLines(path)
			if err != nil {
				return err
			}
			if strings.HasSuffix(path, "_test.go") {
				testLines += n
			} else {
				prodLines += n
			}
		case ".md", ".yaml", ".yml":
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			docWords += len(strings.Fields(string(data)))
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Words (documentation):           %d\n", docWords)
	return nil
}

// countLines counts non-blank lines in the file at path.
func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	return n, sc.Err()
}
