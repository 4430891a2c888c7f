//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package gmw

import (
	"github.com/markkurossi/obliv/circuit"
)

// slice converts batch values of width bits into bit-sliced wires:
// bit i of value j is bit j%64 of wires[i][j/64].
func slice(values []uint64, width int) [][]uint64 {
	words := numWords(len(values))
	wires := make([][]uint64, width)
	for bit := range wires {
		w := make([]uint64, words)
		for j, v := range values {
			w[j/64] |= ((v >> bit) & 1) << (j % 64)
		}
		wires[bit] = w
	}
	return wires
}

// unslice converts bit-sliced wires into batch values.
func unslice(wires [][]uint64, batch int) []uint64 {
	values := make([]uint64, batch)
	for bit, w := range wires {
		for j := range values {
			values[j] |= ((w[j/64] >> (j % 64)) & 1) << bit
		}
	}
	return values
}

// evalCircuit evaluates the circuit with XOR-shared inputs. The
// inputs and results are in batch value form. All AND and OR gates of
// one AND-depth level are evaluated with a single opening.
func (e *Engine) evalCircuit(c *circuit.Circuit, inputs [][]uint64,
	batch int) ([][]uint64, error) {

	words := numWords(batch)
	wires := make([][]uint64, c.NumWires)

	var w int
	for idx, arg := range c.Inputs {
		for _, bits := range slice(inputs[idx], arg.Size) {
			wires[w] = bits
			w++
		}
	}

	wire := func(id circuit.Wire) []uint64 {
		if wires[id] == nil {
			wires[id] = make([]uint64, words)
		}
		return wires[id]
	}

	var ones uint64
	if e.id == 0 {
		ones = ^uint64(0)
	}

	for _, level := range c.Levels() {
		if len(level.Interactive) > 0 {
			x := make([]uint64, 0, len(level.Interactive)*words)
			y := make([]uint64, 0, len(level.Interactive)*words)
			for _, idx := range level.Interactive {
				g := &c.Gates[idx]
				x = append(x, wire(g.Input0)...)
				y = append(y, wire(g.Input1)...)
			}
			z, err := e.and(x, y)
			if err != nil {
				return nil, err
			}
			for i, idx := range level.Interactive {
				g := &c.Gates[idx]
				out := z[i*words : (i+1)*words]
				if g.Op == circuit.OR {
					a := wire(g.Input0)
					b := wire(g.Input1)
					for k := range out {
						out[k] ^= a[k] ^ b[k]
					}
				}
				wires[g.Output] = out
			}
		}
		for _, idx := range level.Free {
			g := &c.Gates[idx]
			out := make([]uint64, words)
			a := wire(g.Input0)
			switch g.Op {
			case circuit.XOR:
				b := wire(g.Input1)
				for k := range out {
					out[k] = a[k] ^ b[k]
				}
			case circuit.XNOR:
				b := wire(g.Input1)
				for k := range out {
					out[k] = a[k] ^ b[k] ^ ones
				}
			case circuit.INV:
				for k := range out {
					out[k] = a[k] ^ ones
				}
			}
			wires[g.Output] = out
		}
	}

	results := make([][]uint64, len(c.Outputs))
	for idx, arg := range c.Outputs {
		first := c.OutputWire(idx)
		out := make([][]uint64, arg.Size)
		for bit := range out {
			out[bit] = wire(first + circuit.Wire(bit))
		}
		results[idx] = unslice(out, batch)
	}
	return results, nil
}
