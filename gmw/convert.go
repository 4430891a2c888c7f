//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package gmw

// a2b converts an arithmetic value into boolean shares. Each party's
// arithmetic share is a trivially XOR-shared input to an N-input
// adder circuit.
func (e *Engine) a2b(n *node) ([]uint64, error) {
	arg := n.args[0]
	batch := arg.value.Batch()

	inputs := make([][]uint64, e.n)
	for p := range inputs {
		if p == e.id {
			inputs[p] = arg.share
		} else {
			inputs[p] = make([]uint64, batch)
		}
	}
	results, err := e.evalCircuit(n.circ, inputs, batch)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// b2a converts a boolean value into arithmetic shares. Each bit b is
// XOR-shared as b0^b1^...; the parties fold the arithmetic sharing
// of the bit with y = y + t - 2*y*t where t is the next party's bit
// share.
func (e *Engine) b2a(n *node) ([]uint64, error) {
	arg := n.args[0]
	width := arg.value.Width()
	batch := arg.value.Batch()

	bits := make([]uint64, width*batch)
	for k := 0; k < width; k++ {
		for j, v := range arg.share {
			bits[k*batch+j] = (v >> k) & 1
		}
	}

	y := make([]uint64, len(bits))
	if e.id == 0 {
		copy(y, bits)
	}
	for p := 1; p < e.n; p++ {
		t := make([]uint64, len(bits))
		if e.id == p {
			copy(t, bits)
		}
		prod, err := e.mul(y, t)
		if err != nil {
			return nil, err
		}
		for i := range y {
			y[i] = y[i] + t[i] - 2*prod[i]
		}
	}

	result := make([]uint64, batch)
	for k := 0; k < width; k++ {
		for j := range result {
			result[j] += y[k*batch+j] << k
		}
	}
	return result, nil
}
