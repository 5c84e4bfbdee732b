// Command subc is the compiler driver (spec §6): it reads one source
// file, runs it through the preprocessor shim, parser, and code
// generator, and writes assembly to its output path. Invoking an
// assembler or linker on that output is the caller's job, not this
// program's (§6's "external collaborators").
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmofishsauce/subc/internal/clog"
	"github.com/gmofishsauce/subc/internal/codegen"
	"github.com/gmofishsauce/subc/internal/cpp"
	"github.com/gmofishsauce/subc/internal/diag"
	"github.com/gmofishsauce/subc/internal/parser"
)

var (
	outPath    string
	stopAtAsm  bool
	emitTokens bool
)

func main() {
	root := &cobra.Command{
		Use:          "subc SOURCE",
		Short:        "compile one subc translation unit to assembly",
		Args:         cobra.ExactArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}
	root.Flags().StringVarP(&outPath, "o", "o", "a.s", "output assembly path")
	root.Flags().BoolVarP(&stopAtAsm, "S", "S", true, "stop after emitting assembly (the only mode this compiler supports)")
	root.Flags().BoolVar(&emitTokens, "emit-tokens", false, "print the expanded token stream to stderr instead of compiling")
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	defer clog.Flush()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		clog.Flush()
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	clog.Stage("cpp", "expanding %s", path)
	toks, err := cpp.Process(path, src, readInclude)
	if err != nil {
		clog.Flush()
		diag.Fatal(err)
	}

	if emitTokens {
		for _, t := range toks {
			fmt.Fprintln(os.Stderr, t.String())
		}
		return nil
	}

	clog.Stage("parse", "%d tokens", len(toks))
	unit, err := parser.Parse(toks)
	if err != nil {
		clog.Flush()
		diag.Fatal(err)
	}
	clog.Stage("codegen", "%d globals, %d functions", len(unit.Globals), len(unit.Funcs))

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("%s: %w", outPath, err)
	}
	defer out.Close()

	if err := codegen.Generate(unit, out); err != nil {
		clog.Flush()
		diag.Fatal(err)
	}
	return nil
}

func readInclude(path string) ([]byte, error) {
	return os.ReadFile(path)
}
