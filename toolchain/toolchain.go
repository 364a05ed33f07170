// Package toolchain turns assembly text into an executable by running the
// external NASM assembler and a platform linker.
package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/emerald-lang/emerald"
)

// ObjectFormat is the object file format the assembler produces.
type ObjectFormat int

const (
	ELF ObjectFormat = iota
	Windows
)

func (f ObjectFormat) String() string {
	switch f {
	case ELF:
		return "elf64"
	case Windows:
		return "win64"
	default:
		return fmt.Sprintf("ObjectFormat(%d)", int(f))
	}
}

// ObjectExt is the conventional object file extension for the format.
func (f ObjectFormat) ObjectExt() string {
	if f == Windows {
		return ".obj"
	}
	return ".o"
}

type Assembler interface {
	Assemble(ctx context.Context, text string, format ObjectFormat) ([]byte, error)
}

// Linker links a single object file into the executable at output and
// returns the path it actually wrote.
type Linker interface {
	Link(ctx context.Context, object []byte, output string) (string, error)
}

// Runner runs an external command in dir and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

func runner(r Runner) Runner {
	if r == nil {
		return ExecRunner{}
	}
	return r
}

func commandError(name string, err error, output []byte) error {
	if out := strings.TrimSpace(string(output)); out != "" {
		return fmt.Errorf("%s: %w\n%s", name, err, out)
	}
	return fmt.Errorf("%s: %w", name, err)
}

// NASM assembles with the nasm binary. Path defaults to "nasm".
type NASM struct {
	Path   string
	Runner Runner
}

func (n NASM) Assemble(ctx context.Context, text string, format ObjectFormat) ([]byte, error) {
	dir, err := os.MkdirTemp("", "emerald-nasm-")
	if err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := os.WriteFile(filepath.Join(dir, "input.asm"), []byte(text), 0644); err != nil {
		return nil, fmt.Errorf("writing assembly: %w", err)
	}

	name := n.Path
	if name == "" {
		name = "nasm"
	}
	object := "output" + format.ObjectExt()
	out, err := runner(n.Runner).Run(ctx, dir, name, "-f", format.String(), "input.asm", "-o", object)
	if err != nil {
		return nil, commandError(name, err, out)
	}

	data, err := os.ReadFile(filepath.Join(dir, object))
	if err != nil {
		return nil, fmt.Errorf("reading object file: %w", err)
	}
	return data, nil
}

// linkObject writes object into a scratch directory and runs the linker
// with the arguments built by args.
func linkObject(ctx context.Context, r Runner, name string, object []byte, ext string, args func(objectFile string) []string) error {
	dir, err := os.MkdirTemp("", "emerald-link-")
	if err != nil {
		return fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(dir)

	objectFile := "program" + ext
	if err := os.WriteFile(filepath.Join(dir, objectFile), object, 0644); err != nil {
		return fmt.Errorf("writing object file: %w", err)
	}

	out, err := runner(r).Run(ctx, dir, name, args(objectFile)...)
	if err != nil {
		return commandError(name, err, out)
	}
	return nil
}

// GNULinker links ELF objects with GNU ld. Path defaults to "ld".
type GNULinker struct {
	Path   string
	Runner Runner
}

func (l GNULinker) Link(ctx context.Context, object []byte, output string) (string, error) {
	output, err := filepath.Abs(output)
	if err != nil {
		return "", err
	}
	name := l.Path
	if name == "" {
		name = "ld"
	}
	err = linkObject(ctx, l.Runner, name, object, ELF.ObjectExt(), func(objectFile string) []string {
		return []string{objectFile, "-o", output}
	})
	if err != nil {
		return "", err
	}
	return output, nil
}

// MSVCLinker links Win64 objects with link.exe. An output path without an
// extension gets ".exe". Path defaults to "link.exe".
type MSVCLinker struct {
	Path   string
	Runner Runner
}

func (l MSVCLinker) Link(ctx context.Context, object []byte, output string) (string, error) {
	if filepath.Ext(output) == "" {
		output += ".exe"
	}
	output, err := filepath.Abs(output)
	if err != nil {
		return "", err
	}
	name := l.Path
	if name == "" {
		name = "link.exe"
	}
	entry := emerald.TargetWindows.EntryPoint()
	err = linkObject(ctx, l.Runner, name, object, Windows.ObjectExt(), func(objectFile string) []string {
		return []string{
			objectFile,
			"/OUT:" + output,
			"/SUBSYSTEM:CONSOLE",
			"/ENTRY:" + entry,
			"kernel32.lib",
		}
	})
	if err != nil {
		return "", err
	}
	return output, nil
}

// ForTarget returns the object format and the linker for target. Commands
// run through r; nil means os/exec.
func ForTarget(target emerald.Target, r Runner) (ObjectFormat, Linker) {
	if target == emerald.TargetWindows {
		return Windows, MSVCLinker{Runner: r}
	}
	return ELF, GNULinker{Runner: r}
}

// Build assembles text and links it into output.
func Build(ctx context.Context, asm Assembler, target emerald.Target, r Runner, text, output string) (string, error) {
	format, linker := ForTarget(target, r)
	object, err := asm.Assemble(ctx, text, format)
	if err != nil {
		return "", fmt.Errorf("assemble: %w", err)
	}
	path, err := linker.Link(ctx, object, output)
	if err != nil {
		return "", fmt.Errorf("link: %w", err)
	}
	return path, nil
}
