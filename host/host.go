// Package host defines the contract an embedder implements to supply a
// native function callable from Wasm, per spec.md's "host function
// contract": a callback receiving the calling instance's memory, typed
// arguments, a mutable result sink, and an opaque environment handle,
// returning one of three outcomes (success, an embedder-requested
// termination, or a trap).
package host

import (
	"github.com/wazevm/wazevm/api"
	"github.com/wazevm/wazevm/internal/wasm"
)

// ResultKind classifies how a host call ended.
type ResultKind int

const (
	// ResultSuccess means Results was filled and execution continues.
	ResultSuccess ResultKind = iota
	// ResultTerminated means the embedder asked the calling instance to
	// stop running without it being a fault (e.g. an explicit "exit").
	ResultTerminated
	// ResultTrap means the call failed with the given TrapKind.
	ResultTrap
)

// Result is the outcome of one host function invocation.
type Result struct {
	Kind     ResultKind
	TrapKind wasm.TrapKind
	// ExitCode carries a process-style exit code when Kind is
	// ResultTerminated, mirroring how WASI's proc_exit is commonly hosted.
	ExitCode uint32
	Message  string
}

// Success builds a ResultSuccess.
func Success() Result { return Result{Kind: ResultSuccess} }

// Terminate builds a ResultTerminated with the given exit code.
func Terminate(code uint32) Result { return Result{Kind: ResultTerminated, ExitCode: code} }

// Trap builds a ResultTrap of the given kind.
func Trap(kind wasm.TrapKind, message string) Result {
	return Result{Kind: ResultTrap, TrapKind: kind, Message: message}
}

// Callback is the embedder-supplied native implementation. mem is nil when
// the calling instance has no memory. env is whatever opaque value was
// supplied at registration (Function.Env), letting one Go closure serve
// many registrations without a capture per instance.
type Callback func(mem api.Memory, params []uint64, results []uint64, env interface{}) Result

// Function is one exported entry of a host module: its Wasm-visible type
// plus the Go callback that implements it.
type Function struct {
	Name string
	Type wasm.FunctionType
	Call Callback
	// Env is passed through to Call unchanged; host modules that need
	// per-registration state (a file table, a clock) stash it here instead
	// of closing over mutable package state.
	Env interface{}
}

// Module is a named collection of host functions the embedder registers
// with a Store before instantiating Wasm modules that import from it
// (spec.md §6 "register_host_module").
type Module struct {
	Name      string
	Functions []Function
}
