//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"golang.org/x/xerrors"
)

// Builder constructs boolean circuits gate by gate. The builder wire
// IDs are renumbered by Compile so that the resulting circuit follows
// the Bristol wire layout.
type Builder struct {
	numWires int
	inputs   IO
	outputs  IO
	inWires  [][]Wire
	outWires [][]Wire
	gates    []Gate
	zero     *Wire
	one      *Wire
}

// NewBuilder creates a new circuit builder.
func NewBuilder() *Builder {
	return new(Builder)
}

func (b *Builder) wire() Wire {
	w := Wire(b.numWires)
	b.numWires++
	return w
}

// Input adds an input argument and returns its wires, least
// significant bit first.
func (b *Builder) Input(name string, bits int) []Wire {
	wires := make([]Wire, bits)
	for i := range wires {
		wires[i] = b.wire()
	}
	b.inputs = append(b.inputs, IOArg{
		Name: name,
		Size: bits,
	})
	b.inWires = append(b.inWires, wires)
	return wires
}

// Output adds an output argument.
func (b *Builder) Output(name string, wires []Wire) {
	b.outputs = append(b.outputs, IOArg{
		Name: name,
		Size: len(wires),
	})
	b.outWires = append(b.outWires, wires)
}

func (b *Builder) binary(op Operation, x, y Wire) Wire {
	o := b.wire()
	b.gates = append(b.gates, Gate{
		Input0: x,
		Input1: y,
		Output: o,
		Op:     op,
	})
	return o
}

// XOR adds an XOR gate.
func (b *Builder) XOR(x, y Wire) Wire {
	return b.binary(XOR, x, y)
}

// XNOR adds an XNOR gate.
func (b *Builder) XNOR(x, y Wire) Wire {
	return b.binary(XNOR, x, y)
}

// AND adds an AND gate.
func (b *Builder) AND(x, y Wire) Wire {
	return b.binary(AND, x, y)
}

// OR adds an OR gate.
func (b *Builder) OR(x, y Wire) Wire {
	return b.binary(OR, x, y)
}

// INV adds an INV gate.
func (b *Builder) INV(x Wire) Wire {
	o := b.wire()
	b.gates = append(b.gates, Gate{
		Input0: x,
		Output: o,
		Op:     INV,
	})
	return o
}

// Zero returns a wire with constant value 0.
func (b *Builder) Zero() Wire {
	if b.zero == nil {
		in := b.anyInput()
		w := b.XOR(in, in)
		b.zero = &w
	}
	return *b.zero
}

// One returns a wire with constant value 1.
func (b *Builder) One() Wire {
	if b.one == nil {
		in := b.anyInput()
		w := b.XNOR(in, in)
		b.one = &w
	}
	return *b.one
}

func (b *Builder) anyInput() Wire {
	for _, in := range b.inWires {
		if len(in) > 0 {
			return in[0]
		}
	}
	panic("circuit: constant wire without inputs")
}

// Compile creates the circuit from the builder state.
func (b *Builder) Compile() (*Circuit, error) {
	if b.inputs.Size() == 0 {
		return nil, xerrors.Errorf("circuit has no inputs: %w", ErrFormat)
	}

	produced := make(map[Wire]bool)
	for _, g := range b.gates {
		produced[g.Output] = true
	}

	// Output bits that are inputs, constants shared with other
	// outputs, or duplicates get copy gates.
	claimed := make(map[Wire]bool)
	var outBits []Wire
	for _, out := range b.outWires {
		for _, w := range out {
			if !produced[w] || claimed[w] {
				w = b.XOR(w, b.Zero())
			}
			claimed[w] = true
			outBits = append(outBits, w)
		}
	}

	mapping := make([]Wire, b.numWires)
	var next Wire
	for _, in := range b.inWires {
		for _, w := range in {
			mapping[w] = next
			next++
		}
	}
	for _, g := range b.gates {
		if claimed[g.Output] {
			continue
		}
		mapping[g.Output] = next
		next++
	}
	for _, w := range outBits {
		mapping[w] = next
		next++
	}

	c := &Circuit{
		NumGates: len(b.gates),
		NumWires: int(next),
		Inputs:   append(IO(nil), b.inputs...),
		Outputs:  append(IO(nil), b.outputs...),
		Gates:    make([]Gate, len(b.gates)),
	}
	for idx, g := range b.gates {
		g.Input0 = mapping[g.Input0]
		if g.Op != INV {
			g.Input1 = mapping[g.Input1]
		}
		g.Output = mapping[g.Output]
		c.Gates[idx] = g
		c.Stats[g.Op]++
	}
	return c, nil
}
