package wasmine

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/wasmine-go/wasmine/internal/backend"
	"github.com/wasmine-go/wasmine/internal/backend/cache"
	"github.com/wasmine-go/wasmine/internal/module"
	"github.com/wasmine-go/wasmine/internal/parser"
	"github.com/wasmine-go/wasmine/internal/resourcebuffer"
)

// CompileCached is Compile, fronted by a .cwasm cache (spec.md §6 "External
// Interfaces", SPEC_FULL.md §4.8). path's bytes are always parsed first, to
// compute the module's content hash; c is then checked for a container under
// that key. A hit re-parses the container's recorded bytes and returns that
// module; a miss stores a new container for the module parsed from path.
// Since this repo's one shipped backend (backend.InterpreterAdapter) needs
// the lowered IR, not machine code, to run a function, the cache does not
// save parsing.
func CompileCached(ctx context.Context, fs afero.Fs, path string, c *cache.Cache) (*CompiledModule, error) {
	rb, err := resourcebuffer.FromFile(fs, path)
	if err != nil {
		return nil, err
	}
	defer rb.Close()

	tmp, err := parser.Parse(rb.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "compiling module for cache lookup")
	}
	key := tmp.ID()

	if cont, ok, err := c.Get(key); err != nil {
		return nil, err
	} else if ok {
		mod, err := parser.Parse(cont.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "parsing cached container's bytes")
		}
		return &CompiledModule{mod: mod}, nil
	}

	cont, err := containerFor(tmp)
	if err != nil {
		return nil, err
	}
	if err := c.Put(key, cont); err != nil {
		return nil, err
	}
	return &CompiledModule{mod: tmp}, nil
}

// SaveCwasm writes compiled out as a standalone `.cwasm` file at path, for
// the bare-path external interface spec.md §6 names (as opposed to a Cache's
// managed directory, which CompileCached uses instead).
func SaveCwasm(path string, compiled *CompiledModule) error {
	cont, err := containerFor(compiled.mod)
	if err != nil {
		return err
	}
	return cache.SaveFile(path, cont)
}

// LoadCwasm reads a standalone `.cwasm` file previously written by SaveCwasm
// or a Cache, re-parsing its recorded bytes into a CompiledModule.
func LoadCwasm(path string) (*CompiledModule, error) {
	cont, err := cache.LoadFile(path)
	if err != nil {
		return nil, err
	}
	mod, err := parser.Parse(cont.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "parsing .cwasm container's bytes")
	}
	return &CompiledModule{mod: mod}, nil
}

// containerFor builds a .cwasm container for mod. It calls only
// TranslateModule on a throwaway InterpreterAdapter, translating no
// function; the symbol table records, for every non-imported function, its
// export name if it has one and backend.SymbolName otherwise.
func containerFor(mod *module.Module) (*cache.Container, error) {
	adapter := backend.NewInterpreterAdapter(nil)
	if err := adapter.TranslateModule(mod); err != nil {
		return nil, errors.Wrap(err, "translating module for .cwasm symbol table")
	}

	symbols := make(map[uint32]string, len(mod.Functions))
	for idx, def := range mod.Functions {
		if def.IsImport {
			continue
		}
		name := backend.SymbolName(uint32(idx))
		if def.Name != "" {
			name = def.Name
		}
		symbols[uint32(idx)] = name
	}

	return &cache.Container{
		ModuleHash: mod.ID(),
		Symbols:    symbols,
		Bytes:      mod.SourceBytes(),
	}, nil
}
