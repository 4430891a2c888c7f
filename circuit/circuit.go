//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"
	"strings"
)

// Operation specifies gate function.
type Operation byte

// Gate functions.
const (
	XOR Operation = iota
	XNOR
	AND
	OR
	INV
)

// Stats holds statistics about circuit operations.
type Stats [INV + 1]int

func (op Operation) String() string {
	switch op {
	case XOR:
		return "XOR"
	case XNOR:
		return "XNOR"
	case AND:
		return "AND"
	case OR:
		return "OR"
	case INV:
		return "INV"
	default:
		return fmt.Sprintf("{Operation %d}", op)
	}
}

// Interactive tests if the operation requires interaction between
// the parties holding XOR-shares of the gate inputs.
func (op Operation) Interactive() bool {
	return op == AND || op == OR
}

// IOArg describes a circuit input or output argument.
type IOArg struct {
	Name string
	Size int
}

func (arg IOArg) String() string {
	if len(arg.Name) > 0 {
		return fmt.Sprintf("%s:%d", arg.Name, arg.Size)
	}
	return fmt.Sprintf("%d", arg.Size)
}

// IO specifies circuit input and output arguments.
type IO []IOArg

// Size computes the size of the circuit input and output arguments in
// bits.
func (io IO) Size() int {
	var sum int
	for _, a := range io {
		sum += a.Size
	}
	return sum
}

func (io IO) String() string {
	parts := make([]string, 0, len(io))
	for _, a := range io {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}

// Circuit specifies a boolean circuit. The input wires are numbered
// from zero in argument order and the output wires occupy the last
// Outputs.Size() wires.
type Circuit struct {
	NumGates int
	NumWires int
	Inputs   IO
	Outputs  IO
	Gates    []Gate
	Stats    Stats
}

func (c *Circuit) String() string {
	var stats string

	for k := XOR; k <= INV; k++ {
		v := c.Stats[k]
		if len(stats) > 0 {
			stats += " "
		}
		stats += fmt.Sprintf("%s=%d", k, v)
	}
	return fmt.Sprintf("#gates=%d (%s) #w=%d", c.NumGates, stats, c.NumWires)
}

// NumInteractive returns the number of AND and OR gates in the
// circuit.
func (c *Circuit) NumInteractive() int {
	return c.Stats[AND] + c.Stats[OR]
}

// OutputWire returns the ID of the first wire of the output argument
// idx.
func (c *Circuit) OutputWire(idx int) Wire {
	w := c.NumWires - c.Outputs.Size()
	for i := 0; i < idx; i++ {
		w += c.Outputs[i].Size
	}
	return Wire(w)
}

// Level holds the gates of one AND-depth level. The Interactive gates
// depend only on wires of the earlier levels and can be evaluated
// together. The Free gates are evaluated after them in gate order.
type Level struct {
	Interactive []int
	Free        []int
}

// Levels groups the circuit gates by their AND-depth.
func (c *Circuit) Levels() []Level {
	depth := make([]int, c.NumWires)
	var result []Level

	for idx, g := range c.Gates {
		var d int
		switch g.Op {
		case XOR, XNOR, AND, OR:
			d = max(depth[g.Input0], depth[g.Input1])
		case INV:
			d = depth[g.Input0]
		}
		if g.Op.Interactive() {
			d++
		}
		depth[g.Output] = d

		for len(result) <= d {
			result = append(result, Level{})
		}
		if g.Op.Interactive() {
			result[d].Interactive = append(result[d].Interactive, idx)
		} else {
			result[d].Free = append(result[d].Free, idx)
		}
	}
	return result
}

// Gate specifies a boolean gate.
type Gate struct {
	Input0 Wire
	Input1 Wire
	Output Wire
	Op     Operation
}

func (g Gate) String() string {
	return fmt.Sprintf("%v %v %v", g.Inputs(), g.Op, g.Output)
}

// Inputs returns gate input wires.
func (g Gate) Inputs() []Wire {
	switch g.Op {
	case XOR, XNOR, AND, OR:
		return []Wire{g.Input0, g.Input1}
	case INV:
		return []Wire{g.Input0}
	default:
		panic(fmt.Sprintf("unsupported gate type %s", g.Op))
	}
}

// Wire specifies a wire ID.
type Wire uint32

func (w Wire) String() string {
	return fmt.Sprintf("w%d", w)
}
