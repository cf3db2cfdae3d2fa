// Command wasmine runs and inspects WebAssembly binaries.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	wasmine "github.com/wasmine-go/wasmine"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wasmine",
		Short:         "Run and inspect WebAssembly modules",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newCompileCmd())
	return root
}

func newCompileCmd() *cobra.Command {
	var cwasmOut string

	cmd := &cobra.Command{
		Use:   "compile <path.wasm>",
		Short: "Decode and validate a module, optionally caching it as a .cwasm container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bin, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			compiled, err := wasmine.Compile(cmd.Context(), bin)
			if err != nil {
				return err
			}
			if cwasmOut != "" {
				if err := wasmine.SaveCwasm(cwasmOut, compiled); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	cmd.Flags().StringVar(&cwasmOut, "cwasm", "", "write a cached .cwasm container to this path")
	return cmd
}

// loadModule compiles path, which may name either a raw .wasm binary or a
// previously cached .cwasm container (spec.md §6).
func loadModule(ctx context.Context, path string) (*wasmine.CompiledModule, error) {
	if strings.HasSuffix(path, ".cwasm") {
		return wasmine.LoadCwasm(path)
	}
	bin, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return wasmine.Compile(ctx, bin)
}

func newRunCmd() *cobra.Command {
	var invoke string
	var args32 []int32

	cmd := &cobra.Command{
		Use:   "run <path.wasm>",
		Short: "Instantiate a module and optionally invoke one of its exports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			ctx := cmd.Context()
			compiled, err := loadModule(ctx, cmdArgs[0])
			if err != nil {
				return err
			}

			rt := wasmine.NewRuntime(ctx)
			mod, err := rt.InstantiateModule(ctx, compiled, wasmine.NewModuleConfig())
			if err != nil {
				return err
			}

			if invoke == "" {
				return nil
			}
			fn := mod.ExportedFunction(invoke)
			if fn == nil {
				return fmt.Errorf("no exported function named %q", invoke)
			}
			params := make([]uint64, len(args32))
			for i, a := range args32 {
				params[i] = uint64(uint32(a))
			}
			results, err := fn.Call(ctx, params...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), results)
			return nil
		},
	}

	cmd.Flags().StringVar(&invoke, "invoke", "", "name of an exported function to call after instantiation")
	cmd.Flags().Int32SliceVar(&args32, "arg", nil, "an i32 argument to pass to --invoke, repeatable")
	return cmd
}
