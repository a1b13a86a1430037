/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Command corvus is the CLI embedding of package corvus: point it at a
// classpath and a class/method to run, the way a `java` invocation names a
// main class. Flag and subcommand structure follows saferwall-pe's cobra
// layout (cmd/pedumper.go: a root command, persistent flags, and one
// subcommand per mode of operation) rather than jacobin's own flag-table CLI
// (cli.go's HandleCli/LoadOptionsTable), since cobra is already part of this
// module's dependency stack.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corvuslang/corvus"
	"github.com/corvuslang/corvus/classfile"
	"github.com/corvuslang/corvus/config"
	"github.com/corvuslang/corvus/corvuslog"
	"github.com/corvuslang/corvus/frames"
	"github.com/corvuslang/corvus/types"
)

var (
	classpath      []string
	configPath     string
	externalParser bool
	mainSig        string
)

func buildVM() (*corvus.VM, error) {
	var opts []corvus.Option

	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		opts = append(opts, corvus.WithLogger(corvuslog.New(os.Stderr, cfg.Level())))
		if cfg.HeapCells > 0 {
			opts = append(opts, corvus.WithHeapCells(cfg.HeapCells))
		}
		if len(cfg.Classpath) > 0 {
			classpath = append(classpath, cfg.Classpath...)
		}
		if cfg.ExternalParser {
			externalParser = true
		}
	}

	if len(classpath) == 0 {
		classpath = []string{"."}
	}
	opts = append(opts, corvus.WithLoader(classfile.NewDirLoader(classpath...)))

	if externalParser {
		opts = append(opts, corvus.WithParser(classfile.ExternalParser{}))
	}

	return corvus.New(opts...)
}

func runInvoke(cmd *cobra.Command, args []string) error {
	className := args[0]
	sigText := mainSig
	if sigText == "" {
		sigText = "main([Ljava/lang/String;)V"
	}
	name, descText, err := splitSignature(sigText)
	if err != nil {
		return err
	}
	desc, err := types.ParseDescriptor(descText)
	if err != nil {
		return fmt.Errorf("parsing descriptor %q: %w", descText, err)
	}

	vm, err := buildVM()
	if err != nil {
		return err
	}

	sig := types.Signature{Name: name, Descriptor: desc}
	result, err := vm.Invoke(className, sig, nil)
	if err != nil {
		return err
	}
	if desc.Return.Primitive() != types.Void {
		fmt.Println(formatResult(result))
	}
	return nil
}

func formatResult(v frames.Value) string {
	if v.IsReference() {
		return fmt.Sprintf("reference@%d", v.Reference())
	}
	return fmt.Sprintf("%d", v.Bits())
}

// splitSignature parses "name(desc)ret" into its name and "(desc)ret" parts.
func splitSignature(s string) (name, descriptor string, err error) {
	i := -1
	for j := 0; j < len(s); j++ {
		if s[j] == '(' {
			i = j
			break
		}
	}
	if i < 0 {
		return "", "", fmt.Errorf("malformed method signature %q: missing '('", s)
	}
	return s[:i], s[i:], nil
}

func runDumpHeap(cmd *cobra.Command, args []string) error {
	className := args[0]
	sigText := mainSig
	if sigText == "" {
		sigText = "main([Ljava/lang/String;)V"
	}
	name, descText, err := splitSignature(sigText)
	if err != nil {
		return err
	}
	desc, err := types.ParseDescriptor(descText)
	if err != nil {
		return err
	}

	vm, err := buildVM()
	if err != nil {
		return err
	}

	sig := types.Signature{Name: name, Descriptor: desc}
	if _, err := vm.Invoke(className, sig, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return vm.DumpHeap(os.Stdout)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "corvus",
		Short: "A metacircular-style bytecode interpreter",
	}
	rootCmd.PersistentFlags().StringSliceVar(&classpath, "classpath", nil, "classpath roots to search for classes")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a corvus.yaml configuration file")
	rootCmd.PersistentFlags().BoolVar(&externalParser, "external-parser", false, "decode real compiled .class files instead of corvus's own fixture format")
	rootCmd.PersistentFlags().StringVar(&mainSig, "sig", "", "method name+descriptor to invoke, default main([Ljava/lang/String;)V")

	invokeCmd := &cobra.Command{
		Use:   "invoke <class>",
		Short: "Resolve and run a static method to completion",
		Args:  cobra.ExactArgs(1),
		RunE:  runInvoke,
	}

	dumpHeapCmd := &cobra.Command{
		Use:   "dump-heap <class>",
		Short: "Run a static method, then dump the live heap",
		Args:  cobra.ExactArgs(1),
		RunE:  runDumpHeap,
	}

	rootCmd.AddCommand(invokeCmd, dumpHeapCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
