//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"golang.org/x/xerrors"
)

// Compute evaluates the circuit with cleartext inputs. Each input and
// output argument must be at most 64 bits wide.
func (c *Circuit) Compute(inputs []uint64) ([]uint64, error) {
	if len(inputs) != len(c.Inputs) {
		return nil, xerrors.Errorf("invalid arguments: got %d, expected %d",
			len(inputs), len(c.Inputs))
	}
	for _, io := range append(append(IO{}, c.Inputs...), c.Outputs...) {
		if io.Size > 64 {
			return nil, xerrors.Errorf("argument %s too wide", io)
		}
	}

	wires := make([]byte, c.NumWires)

	var w int
	for idx, io := range c.Inputs {
		a := inputs[idx]
		for bit := 0; bit < io.Size; bit++ {
			wires[w] = byte(a>>bit) & 1
			w++
		}
	}

	for _, gate := range c.Gates {
		var result byte

		switch gate.Op {
		case XOR:
			result = wires[gate.Input0] ^ wires[gate.Input1]

		case XNOR:
			result = wires[gate.Input0] ^ wires[gate.Input1] ^ 1

		case AND:
			result = wires[gate.Input0] & wires[gate.Input1]

		case OR:
			result = wires[gate.Input0] | wires[gate.Input1]

		case INV:
			result = wires[gate.Input0] ^ 1

		default:
			return nil, xerrors.Errorf("invalid gate %s", gate.Op)
		}

		wires[gate.Output] = result
	}

	var result []uint64
	for idx, io := range c.Outputs {
		first := c.OutputWire(idx)
		var r uint64
		for bit := 0; bit < io.Size; bit++ {
			r |= uint64(wires[first+Wire(bit)]) << bit
		}
		result = append(result, r)
	}

	return result, nil
}
