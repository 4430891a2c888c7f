//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package gmw

import (
	"fmt"

	"github.com/markkurossi/obliv/dealer"
	"github.com/markkurossi/obliv/share"
	"github.com/rs/xid"
	"golang.org/x/xerrors"
)

// Run implements share.Backend.Run. It evaluates all operations added
// after the previous Run.
func (e *Engine) Run() error {
	if e.err != nil {
		return e.err
	}
	session := xid.New()
	logger := e.logger.With().Str("session", session.String()).Logger()

	nodes := e.nodes[e.pending:]
	var arith, boolean int
	for _, n := range nodes {
		a, b := e.numTriples(n)
		arith += a
		boolean += b
	}
	logger.Debug().Int("nodes", len(nodes)).Int("arithmetic", arith).
		Int("boolean", boolean).Msg("run")

	at, bt, err := e.dealer.Triples(arith, boolean)
	if err != nil {
		return e.fail(err)
	}
	e.arith = dealer.NewPool(at)
	e.boolean = dealer.NewPool(bt)
	e.timing.Sample("Triples", []string{
		fmt.Sprintf("%d+%d", arith, boolean),
	})

	rounds := e.stats.Rounds
	for _, n := range nodes {
		if err := e.eval(n); err != nil {
			return e.fail(xerrors.Errorf("%s: %w", n.op, err))
		}
		n.done = true
	}
	e.pending = len(e.nodes)

	if e.arith.Remaining() != 0 || e.boolean.Remaining() != 0 {
		return e.fail(xerrors.Errorf("unused triples: %d+%d",
			e.arith.Remaining(), e.boolean.Remaining()))
	}
	e.timing.Sample("Eval", []string{
		fmt.Sprintf("%d rounds", e.stats.Rounds-rounds),
	})
	logger.Debug().Int("rounds", e.stats.Rounds-rounds).Msg("run done")

	return nil
}

// numTriples returns the number of arithmetic and boolean triples the
// node consumes.
func (e *Engine) numTriples(n *node) (arith, boolean int) {
	switch n.op {
	case opMul:
		return n.value.Batch(), 0
	case opAnd, opOr:
		return 0, n.value.Batch()
	case opB2A:
		return (e.n - 1) * n.value.Width() * n.value.Batch(), 0
	case opA2B:
		return 0, n.circ.NumInteractive() * numWords(n.value.Batch())
	case opCircuit:
		return 0, n.circ.NumInteractive() * numWords(n.args[0].value.Batch())
	default:
		return 0, 0
	}
}

func (e *Engine) eval(n *node) error {
	var err error
	var mask uint64
	if n.value != nil {
		mask = n.value.Mask()
	}

	switch n.op {
	case opInput:
		n.share, err = e.input(n)

	case opConst:
		n.share = make([]uint64, len(n.values))
		if e.id == 0 {
			copy(n.share, n.values)
		}

	case opAdd:
		a, b := n.args[0].share, n.args[1].share
		n.share = make([]uint64, len(a))
		for i := range a {
			n.share[i] = a[i] + b[i]
		}

	case opSub:
		a, b := n.args[0].share, n.args[1].share
		n.share = make([]uint64, len(a))
		for i := range a {
			n.share[i] = a[i] - b[i]
		}

	case opNeg:
		a := n.args[0].share
		n.share = make([]uint64, len(a))
		for i := range a {
			n.share[i] = -a[i]
		}

	case opMul:
		n.share, err = e.mul(n.args[0].share, n.args[1].share)

	case opAnd:
		n.share, err = e.and(n.args[0].share, n.args[1].share)

	case opOr:
		a, b := n.args[0].share, n.args[1].share
		n.share, err = e.and(a, b)
		for i := range n.share {
			n.share[i] ^= a[i] ^ b[i]
		}

	case opXor:
		a, b := n.args[0].share, n.args[1].share
		n.share = make([]uint64, len(a))
		for i := range a {
			n.share[i] = a[i] ^ b[i]
		}

	case opNot:
		a := n.args[0].share
		n.share = make([]uint64, len(a))
		for i := range a {
			n.share[i] = a[i]
			if e.id == 0 {
				n.share[i] ^= mask
			}
		}

	case opConcat:
		n.share = make([]uint64, n.value.Batch())
		var shift int
		for _, arg := range n.args {
			for i, v := range arg.share {
				n.share[i] |= (v & arg.value.Mask()) << shift
			}
			shift += arg.value.Width()
		}

	case opA2B:
		n.share, err = e.a2b(n)

	case opB2A:
		n.share, err = e.b2a(n)

	case opCircuit:
		var inputs [][]uint64
		for _, arg := range n.args {
			inputs = append(inputs, arg.share)
		}
		n.results, err = e.evalCircuit(n.circ, inputs,
			n.args[0].value.Batch())

	case opResult:
		n.share = n.args[0].results[n.index]

	default:
		return xerrors.Errorf("unsupported operation")
	}
	if err != nil {
		return err
	}
	for i := range n.share {
		n.share[i] &= mask
	}
	return nil
}

// input distributes the owner's input as random shares.
func (e *Engine) input(n *node) ([]uint64, error) {
	batch := n.value.Batch()
	boolean := n.value.Repr() == share.Boolean

	if n.owner != e.id {
		conn := e.peers[n.owner]
		result, err := conn.ReceiveUint64s()
		if err != nil {
			return nil, err
		}
		if len(result) != batch {
			return nil, xerrors.Errorf("got %d shares, expected %d",
				len(result), batch)
		}
		return result, nil
	}

	result := append([]uint64(nil), n.values...)
	for id, conn := range e.peers {
		if id == e.id {
			continue
		}
		r := e.random(batch)
		for i := range result {
			if boolean {
				result[i] ^= r[i]
			} else {
				result[i] -= r[i]
			}
		}
		if err := conn.SendUint64s(r); err != nil {
			return nil, err
		}
		if err := conn.Flush(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// mul multiplies arithmetic shares with Beaver triples.
func (e *Engine) mul(x, y []uint64) ([]uint64, error) {
	n := len(x)
	a, b, c := e.arith.Take(n)

	de := make([]uint64, 2*n)
	for i := 0; i < n; i++ {
		de[i] = x[i] - a[i]
		de[n+i] = y[i] - b[i]
	}
	de, err := e.open(de, false)
	if err != nil {
		return nil, err
	}
	z := make([]uint64, n)
	for i := 0; i < n; i++ {
		d := de[i]
		f := de[n+i]
		z[i] = c[i] + d*b[i] + f*a[i]
		if e.id == 0 {
			z[i] += d * f
		}
	}
	e.stats.MulOps += n
	return z, nil
}

// and computes the bitwise AND of boolean shares with boolean
// triples.
func (e *Engine) and(x, y []uint64) ([]uint64, error) {
	n := len(x)
	a, b, c := e.boolean.Take(n)

	de := make([]uint64, 2*n)
	for i := 0; i < n; i++ {
		de[i] = x[i] ^ a[i]
		de[n+i] = y[i] ^ b[i]
	}
	de, err := e.open(de, true)
	if err != nil {
		return nil, err
	}
	z := make([]uint64, n)
	for i := 0; i < n; i++ {
		d := de[i]
		f := de[n+i]
		z[i] = c[i] ^ d&b[i] ^ f&a[i]
		if e.id == 0 {
			z[i] ^= d & f
		}
	}
	e.stats.AndOps += n
	return z, nil
}

// open reconstructs the shared values by exchanging shares with all
// peers. Each pair of parties exchanges in a fixed order: the party
// with the smaller ID sends first.
func (e *Engine) open(vals []uint64, boolean bool) ([]uint64, error) {
	result := append([]uint64(nil), vals...)

	for id, conn := range e.peers {
		if id == e.id {
			continue
		}
		var peer []uint64
		var err error
		if e.id < id {
			if err = sendFlush(conn, vals); err != nil {
				return nil, err
			}
			if peer, err = conn.ReceiveUint64s(); err != nil {
				return nil, err
			}
		} else {
			if peer, err = conn.ReceiveUint64s(); err != nil {
				return nil, err
			}
			if err = sendFlush(conn, vals); err != nil {
				return nil, err
			}
		}
		if len(peer) != len(vals) {
			return nil, xerrors.Errorf("peer %d sent %d shares, expected %d",
				id, len(peer), len(vals))
		}
		for i, v := range peer {
			if boolean {
				result[i] ^= v
			} else {
				result[i] += v
			}
		}
	}
	e.stats.Rounds++
	return result, nil
}

type sender interface {
	SendUint64s(vals []uint64) error
	Flush() error
}

func sendFlush(conn sender, vals []uint64) error {
	if err := conn.SendUint64s(vals); err != nil {
		return err
	}
	return conn.Flush()
}

func numWords(batch int) int {
	return (batch + 63) / 64
}
