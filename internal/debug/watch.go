// Package debug provides memory watchpoints with optional boolean
// conditions over CPU state.
package debug

import (
	"fmt"
	"log"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"nengo/internal/bus"
)

// watchEnv is the expression environment a condition sees
type watchEnv struct {
	A     uint8  `expr:"a"`
	X     uint8  `expr:"x"`
	Y     uint8  `expr:"y"`
	SP    uint8  `expr:"sp"`
	PC    uint16 `expr:"pc"`
	Old   uint8  `expr:"old"`
	Value uint8  `expr:"value"`
	Frame uint64 `expr:"frame"`
}

type watchpoint struct {
	addr uint16
	cond *vm.Program
	src  string
	last uint8
}

// Watcher checks a set of watched addresses between frames and logs the
// transitions whose condition holds.
type Watcher struct {
	bus    *bus.Bus
	points []watchpoint
}

// NewWatcher creates a watcher over a machine
func NewWatcher(b *bus.Bus) *Watcher {
	return &Watcher{bus: b}
}

// AddWatch registers an address with an optional condition expression.
// The expression sees a, x, y, sp, pc, old, value and frame; an empty
// string always fires.
func (w *Watcher) AddWatch(addr uint16, condition string) error {
	wp := watchpoint{addr: addr, src: condition, last: w.bus.Peek(addr)}
	if condition != "" {
		prog, err := expr.Compile(condition, expr.Env(watchEnv{}), expr.AsBool())
		if err != nil {
			return fmt.Errorf("bad watch condition %q: %w", condition, err)
		}
		wp.cond = prog
	}
	w.points = append(w.points, wp)
	return nil
}

// Clear removes all watchpoints
func (w *Watcher) Clear() {
	w.points = nil
}

// Check scans the watched addresses and logs qualifying changes. Call it
// between frames; it never reads through registers with side effects.
func (w *Watcher) Check() {
	if len(w.points) == 0 {
		return
	}
	cpu := w.bus.CPU
	for i := range w.points {
		wp := &w.points[i]
		cur := w.bus.Peek(wp.addr)
		if cur == wp.last {
			continue
		}

		fire := true
		if wp.cond != nil {
			env := watchEnv{
				A: cpu.A, X: cpu.X, Y: cpu.Y, SP: cpu.SP, PC: cpu.PC,
				Old: wp.last, Value: cur, Frame: w.bus.PPU.Frame(),
			}
			out, err := expr.Run(wp.cond, env)
			if err != nil {
				log.Printf("[WATCH] condition %q: %v", wp.src, err)
				fire = false
			} else {
				fire = out.(bool)
			}
		}

		if fire {
			log.Printf("[WATCH] $%04X: $%02X -> $%02X (pc=$%04X)", wp.addr, wp.last, cur, cpu.PC)
		}
		wp.last = cur
	}
}
