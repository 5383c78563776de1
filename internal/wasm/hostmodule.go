package wasm

import "github.com/wazevm/wazevm/api"

// HostFunctionSpec describes one function to allocate as a store-level
// host function. HostFn is opaque here (interpreted by
// internal/engine/interpreter as a *host.Function) so this package never
// imports the host package, which itself imports wasm (spec.md §9: break
// cycles with indirection, not import edges, same reasoning as
// RunStartFunc in instantiate.go).
type HostFunctionSpec struct {
	Name   string
	Type   FunctionType
	HostFn interface{}
}

// RegisterHostModule allocates one FunctionInstance per spec and exports
// it under name.field, then registers the resulting ModuleInstance so
// later Instantiate calls can import from it (spec.md §6
// "register_host_module"). There is no import resolution step here: a
// host module never itself imports anything.
func RegisterHostModule(store *Store, name string, specs []HostFunctionSpec) *ModuleInstance {
	mi := &ModuleInstance{
		Name:    name,
		Exports: make(map[string]Export, len(specs)),
		store:   store,
	}
	for i := range specs {
		s := &specs[i]
		ft := s.Type
		fi := &FunctionInstance{
			Type:      &ft,
			HostFn:    s.HostFn,
			HostName:  name + "." + s.Name,
			DebugName: name + "." + s.Name,
		}
		mi.FunctionAddrs = append(mi.FunctionAddrs, store.addFunction(fi))
		mi.Exports[s.Name] = Export{Name: s.Name, Kind: api.ExternTypeFunc, Index: uint32(i)}
	}
	mi.ImportedFunctionCount = 0
	store.Register(mi)
	return mi
}
