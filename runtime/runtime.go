// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package runtime

import (
	"github.com/google/uuid"

	"github.com/JoeStrout/MS2Prototypes-sub000/asm"
	"github.com/JoeStrout/MS2Prototypes-sub000/gc"
	"github.com/JoeStrout/MS2Prototypes-sub000/ops"
	"github.com/JoeStrout/MS2Prototypes-sub000/strpool"
	"github.com/JoeStrout/MS2Prototypes-sub000/value"
	"github.com/JoeStrout/MS2Prototypes-sub000/vm"
)

// Runtime is one independent interpreter instance: its own heap, its
// own interning pools, its own assembler cache. Two Runtimes in the
// same process share nothing, so running untrusted scripts
// concurrently on separate Runtimes needs no external locking.
type Runtime struct {
	// ID identifies this instance in logs; distinguishing which
	// Runtime a given trace line or collection report came from is
	// otherwise impossible once more than one is alive in a process.
	ID uuid.UUID

	Heap  *gc.Heap
	Pools *strpool.PoolSet
	Asm   *asm.Assembler
	VM    *vm.VM

	Config *Config

	// Errorf receives every diagnostic line when Config.Debug is set:
	// GC collection reports, VM trace lines, and fatal-error dumps.
	// Nil by default.
	Errorf func(format string, args ...any)
}

// New creates a Runtime from cfg (DefaultConfig() if nil).
func New(cfg *Config) *Runtime {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	h := gc.New(cfg.GCInitialThreshold)
	rt := &Runtime{
		ID:     uuid.New(),
		Heap:   h,
		Pools:  strpool.NewSet(h.AllocBytes),
		Asm:    asm.New(h),
		Config: cfg,
	}
	var funcs vm.FuncTable
	rt.VM = vm.New(h, &funcs)
	rt.VM.MaxCycles = cfg.MaxCycles
	rt.VM.MaxFrames = cfg.MaxFrames
	rt.VM.Trace = cfg.Trace
	if cfg.Debug {
		h.Errorf = rt.logf
		rt.VM.Errorf = rt.logf
	}
	return rt
}

func (rt *Runtime) logf(format string, args ...any) {
	if rt.Errorf != nil {
		rt.Errorf(format, args...)
	}
}

// Load assembles source and installs its function table as the one
// this Runtime's VM executes.
func (rt *Runtime) Load(source string) (*asm.Result, error) {
	result, err := rt.Asm.Assemble(source)
	if err != nil {
		return nil, err
	}
	rt.VM.Funcs = result.Funcs
	return result, nil
}

// RunMain runs the @main function of a previously Loaded program.
func (rt *Runtime) RunMain(result *asm.Result, args []value.Value) (value.Value, error) {
	return rt.VM.Run(result.Main, args)
}

// ToString renders v for display, delegating to ops since that's
// where heap-aware formatting lives.
func (rt *Runtime) ToString(v value.Value) string { return ops.ToString(rt.Heap, v) }

// Repr renders v for debugging, quoting strings and recursing into
// containers.
func (rt *Runtime) Repr(v value.Value) string { return ops.Repr(rt.Heap, v) }
