package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/emerald-lang/emerald"
	"github.com/emerald-lang/emerald/toolchain"
	"github.com/emerald-lang/emerald/x86sim"
	"golang.org/x/sync/errgroup"
)

// runStepLimit keeps "emerald run" from spinning forever on a program that
// never exits.
const runStepLimit = 100_000_000

func showUsage() {
	fmt.Fprintf(os.Stderr, `Emerald - a toy language that compiles to x86-64 assembly

Usage:
    emerald <command> [arguments]

Commands:
    build <files>   Compile, assemble and link .em files into executables
    asm <file>      Compile a .em file to NASM assembly
    run <file>      Compile a .em file and execute it in the simulator
    check <file>    Parse and check a .em file without generating output
    help            Show this help message

Examples:
    emerald build -o hello hello.em
    emerald build -j 4 examples/*.em
    emerald asm -target windows -o hello.asm hello.em
    emerald run examples/countdown.em
    emerald check -ast hello.em

Use "emerald <command> -h" for more information about a command.
`)
}

// targetFlag is a flag.Value for -target.
type targetFlag struct {
	target emerald.Target
}

func (f *targetFlag) String() string { return f.target.String() }

func (f *targetFlag) Set(s string) error {
	t, err := emerald.ParseTarget(s)
	if err != nil {
		return err
	}
	f.target = t
	return nil
}

func defaultTarget() targetFlag {
	if runtime.GOOS == "windows" {
		return targetFlag{emerald.TargetWindows}
	}
	return targetFlag{emerald.TargetLinux}
}

// compileFile reads and compiles one file. Diagnostics are written to w with
// a source excerpt for each.
func compileFile(w io.Writer, filename string, target emerald.Target, verbose bool) (*emerald.Result, error) {
	source, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	result := emerald.Compile(filename, string(source), emerald.Options{Target: target})
	for _, msg := range result.Diagnostics.All() {
		fmt.Fprintf(w, "%s: %s\n", filename, emerald.Excerpt(msg, string(source)))
	}
	if result.Failed() {
		return result, fmt.Errorf("%s: compilation failed with %d diagnostic(s)", filename, result.Diagnostics.Len())
	}
	if verbose {
		fmt.Fprintf(w, "AST: %s\n", emerald.ToSExpr(result.Program))
	}
	return result, nil
}

// outputName swaps the extension of filename for ext. A file without an
// extension gets ".out" rather than being overwritten.
func outputName(filename, ext string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename)) + ext
	if name == filename {
		name += ".out"
	}
	return name
}

func buildCommand(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", "Output file path (default: <filename> without extension; single file only)")
	keepAsm := fs.Bool("keep-asm", false, "Also write the generated assembly next to the output")
	jobs := fs.Int("j", runtime.NumCPU(), "Maximum number of files compiled in parallel")
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	target := defaultTarget()
	fs.Var(&target, "target", "Target platform: linux or windows")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: emerald build [-o output] [-target linux|windows] [-keep-asm] [-j n] [-v] <files>\n")
		fmt.Fprintf(os.Stderr, "Compile, assemble and link .em files\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: expected at least one file argument\n")
		fs.Usage()
		os.Exit(1)
	}
	if *output != "" && fs.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "Error: -o cannot be used with more than one file\n")
		os.Exit(1)
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(*jobs, 1))
	for _, filename := range fs.Args() {
		out := *output
		if out == "" {
			out = outputName(filename, "")
		}
		g.Go(func() error {
			return buildFile(ctx, filename, out, target.target, *keepAsm, *verbose)
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Build failed: %v\n", err)
		os.Exit(1)
	}
}

func buildFile(ctx context.Context, filename, output string, target emerald.Target, keepAsm, verbose bool) error {
	if verbose {
		fmt.Printf("Compiling %s to %s (%s)...\n", filename, output, target)
	}

	result, err := compileFile(os.Stderr, filename, target, verbose)
	if err != nil {
		return err
	}

	if keepAsm {
		asmFile := outputName(output, ".asm")
		if err := os.WriteFile(asmFile, []byte(result.Assembly), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", asmFile, err)
		}
	}

	path, err := toolchain.Build(ctx, toolchain.NASM{}, target, nil, result.Assembly, output)
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	fmt.Printf("Generated %s\n", path)
	return nil
}

func asmCommand(args []string) {
	fs := flag.NewFlagSet("asm", flag.ExitOnError)
	output := fs.String("o", "", "Output file path (default: <filename>.asm, - for stdout)")
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	target := defaultTarget()
	fs.Var(&target, "target", "Target platform: linux or windows")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: emerald asm [-o output] [-target linux|windows] [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Compile a .em file to NASM assembly\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	filename := fs.Arg(0)
	outputFile := *output
	if outputFile == "" {
		outputFile = outputName(filename, ".asm")
	}

	result, err := compileFile(os.Stderr, filename, target.target, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		os.Exit(1)
	}

	if outputFile == "-" {
		fmt.Print(result.Assembly)
		return
	}
	if err := os.WriteFile(outputFile, []byte(result.Assembly), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing assembly file %s: %v\n", outputFile, err)
		os.Exit(1)
	}
	if *verbose {
		fmt.Printf("Generated %s (%d bytes)\n", outputFile, len(result.Assembly))
	}
}

func runCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: emerald run [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Compile a .em file and execute it in the x86-64 simulator.\n")
		fmt.Fprintf(os.Stderr, "The program's exit code becomes emerald's exit code.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	filename := fs.Arg(0)
	if *verbose {
		fmt.Printf("Compiling %s...\n", filename)
	}

	result, err := compileFile(os.Stderr, filename, emerald.TargetLinux, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Generated %d bytes of assembly\n", len(result.Assembly))
		fmt.Printf("Executing...\n")
	}

	code, err := x86sim.Run(result.Assembly, runStepLimit)
	if err != nil {
		if errors.Is(err, x86sim.ErrStepLimit) {
			fmt.Fprintf(os.Stderr, "Execution failed: program did not exit within %d steps\n", runStepLimit)
		} else {
			fmt.Fprintf(os.Stderr, "Execution failed: %v\n", err)
		}
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Exit code: %d\n", code)
	}
	// Like a real process, only the low byte survives.
	os.Exit(int(code & 0xff))
}

func checkCommand(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	showAST := fs.Bool("ast", false, "Print the AST as an s-expression")
	verbose := fs.Bool("v", false, "Show verbose checking details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: emerald check [-ast] [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Parse and check a .em file\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	filename := fs.Arg(0)
	if *verbose {
		fmt.Printf("Checking %s...\n", filename)
	}

	result, err := compileFile(os.Stdout, filename, emerald.TargetLinux, false)
	if result != nil && *showAST {
		fmt.Println(emerald.ToSExpr(result.Program))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s: no errors found\n", filename)
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		buildCommand(args)
	case "asm":
		asmCommand(args)
	case "run":
		runCommand(args)
	case "check":
		checkCommand(args)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}
