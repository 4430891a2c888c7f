//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package gmw implements the GMW multi-party protocol over additive
// arithmetic shares and XOR boolean shares. Multiplication triples
// are provided by a trusted dealer.
package gmw

import (
	"fmt"
	"io"

	"github.com/markkurossi/obliv/circuit"
	"github.com/markkurossi/obliv/dealer"
	"github.com/markkurossi/obliv/env"
	"github.com/markkurossi/obliv/p2p"
	"github.com/markkurossi/obliv/share"
	"github.com/markkurossi/text/superscript"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

var (
	_ share.Backend = &Engine{}
)

type opcode int

const (
	opInput opcode = iota
	opConst
	opAdd
	opSub
	opNeg
	opMul
	opAnd
	opOr
	opXor
	opNot
	opConcat
	opA2B
	opB2A
	opCircuit
	opResult
	opGT
	opEQ
)

var opcodes = map[opcode]string{
	opInput:   "input",
	opConst:   "const",
	opAdd:     "add",
	opSub:     "sub",
	opNeg:     "neg",
	opMul:     "mul",
	opAnd:     "and",
	opOr:      "or",
	opXor:     "xor",
	opNot:     "not",
	opConcat:  "concat",
	opA2B:     "a2b",
	opB2A:     "b2a",
	opCircuit: "circuit",
	opResult:  "result",
	opGT:      "gt",
	opEQ:      "eq",
}

func (op opcode) String() string {
	name, ok := opcodes[op]
	if ok {
		return name
	}
	return fmt.Sprintf("{opcode %d}", int(op))
}

// node is an operation in the pending computation graph. After
// evaluation, share holds the party's share of each batch element;
// circuit nodes hold the shares of all circuit outputs in results.
type node struct {
	op       opcode
	value    *share.Value
	args     []*node
	owner    int
	values   []uint64
	circ     *circuit.Circuit
	index    int
	share    []uint64
	results  [][]uint64
	revealed []uint64
	done     bool
}

// Engine implements the share.Backend interface for one party.
type Engine struct {
	id       int
	n        int
	logger   zerolog.Logger
	peers    []*p2p.Conn
	dealer   *dealer.Client
	prg      *dealer.PRG
	nodes    []*node
	pending  int
	arith    *dealer.Pool
	boolean  *dealer.Pool
	circuits map[circuitKey]*circuit.Circuit
	stats    Stats
	timing   *Timing
	err      error
}

type circuitKey struct {
	op    opcode
	width int
}

// New creates a new engine for the party id. The peers slice holds the
// connections to all other parties, indexed by party ID, and a nil
// entry for the party itself.
func New(config *env.Config, id int, peers []*p2p.Conn,
	dc *dealer.Client) (*Engine, error) {

	if len(peers) < 2 {
		return nil, xerrors.Errorf("gmw: %d parties: %w", len(peers),
			share.ErrConfiguration)
	}
	if id < 0 || id >= len(peers) {
		return nil, xerrors.Errorf("gmw: invalid party ID %d: %w", id,
			share.ErrConfiguration)
	}
	for peer, conn := range peers {
		if (conn == nil) != (peer == id) {
			return nil, xerrors.Errorf("gmw: invalid connection to %d: %w",
				peer, share.ErrConfiguration)
		}
	}
	if dc == nil {
		return nil, xerrors.Errorf("gmw: no dealer: %w",
			share.ErrConfiguration)
	}

	seed := make([]byte, dealer.SeedSize)
	if _, err := io.ReadFull(config.GetRandom(), seed); err != nil {
		return nil, xerrors.Errorf("gmw: seed: %w", err)
	}
	prg, err := dealer.NewPRG(seed)
	if err != nil {
		return nil, err
	}

	return &Engine{
		id: id,
		n:  len(peers),
		logger: config.GetLogger().With().
			Str("party", "P"+superscript.Itoa(id)).Logger(),
		peers:    peers,
		dealer:   dc,
		prg:      prg,
		circuits: make(map[circuitKey]*circuit.Circuit),
		timing:   NewTiming(),
	}, nil
}

// ID implements share.Backend.ID.
func (e *Engine) ID() int {
	return e.id
}

// NumParties implements share.Backend.NumParties.
func (e *Engine) NumParties() int {
	return e.n
}

// Stats returns the engine operation counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Timing returns the engine timing samples.
func (e *Engine) Timing() *Timing {
	return e.timing
}

// IOStats returns the I/O statistics of the peer connections.
func (e *Engine) IOStats() p2p.IOStats {
	result := p2p.NewIOStats()
	for _, conn := range e.peers {
		if conn != nil {
			result = result.Add(conn.Stats)
		}
	}
	return result
}

func (e *Engine) add(n *node, width int, repr share.Repr, batch int) (
	*share.Value, error) {

	if e.err != nil {
		return nil, e.err
	}
	if err := share.CheckShape(width, batch); err != nil {
		return nil, xerrors.Errorf("%s: %w", n.op, err)
	}
	n.value = share.NewValue(len(e.nodes), width, repr, batch)
	e.nodes = append(e.nodes, n)
	return n.value, nil
}

func (e *Engine) lookup(v *share.Value) *node {
	if v == nil || v.ID() < 0 || v.ID() >= len(e.nodes) {
		return nil
	}
	n := e.nodes[v.ID()]
	if n.value != v {
		return nil
	}
	return n
}

func (e *Engine) resolve(op string, repr share.Repr, values ...*share.Value) (
	[]*node, error) {

	if err := share.Check(op, repr, values...); err != nil {
		return nil, err
	}
	result := make([]*node, len(values))
	for i, v := range values {
		result[i] = e.lookup(v)
		if result[i] == nil {
			return nil, xerrors.Errorf("%s: foreign value %v: %w",
				op, v, share.ErrArgument)
		}
	}
	return result, nil
}

// Input implements share.Backend.Input.
func (e *Engine) Input(owner, width int, repr share.Repr, values []uint64) (
	*share.Value, error) {

	if owner < 0 || owner >= e.n {
		return nil, xerrors.Errorf("input: invalid owner %d: %w", owner,
			share.ErrArgument)
	}
	n := &node{
		op:    opInput,
		owner: owner,
	}
	if owner == e.id {
		n.values = append([]uint64(nil), values...)
	}
	return e.add(n, width, repr, len(values))
}

// Constant implements share.Backend.Constant.
func (e *Engine) Constant(width int, repr share.Repr, values []uint64) (
	*share.Value, error) {

	return e.add(&node{
		op:     opConst,
		values: append([]uint64(nil), values...),
	}, width, repr, len(values))
}

func (e *Engine) binary(op opcode, repr share.Repr, a, b *share.Value) (
	*share.Value, error) {

	args, err := e.resolve(op.String(), repr, a, b)
	if err != nil {
		return nil, err
	}
	return e.add(&node{
		op:   op,
		args: args,
	}, a.Width(), repr, a.Batch())
}

func (e *Engine) unary(op opcode, repr share.Repr, a *share.Value) (
	*share.Value, error) {

	args, err := e.resolve(op.String(), repr, a)
	if err != nil {
		return nil, err
	}
	return e.add(&node{
		op:   op,
		args: args,
	}, a.Width(), repr, a.Batch())
}

// Add implements share.Backend.Add.
func (e *Engine) Add(a, b *share.Value) (*share.Value, error) {
	return e.binary(opAdd, share.Arithmetic, a, b)
}

// Sub implements share.Backend.Sub.
func (e *Engine) Sub(a, b *share.Value) (*share.Value, error) {
	return e.binary(opSub, share.Arithmetic, a, b)
}

// Neg implements share.Backend.Neg.
func (e *Engine) Neg(a *share.Value) (*share.Value, error) {
	return e.unary(opNeg, share.Arithmetic, a)
}

// Mul implements share.Backend.Mul.
func (e *Engine) Mul(a, b *share.Value) (*share.Value, error) {
	v, err := e.binary(opMul, share.Arithmetic, a, b)
	if err == nil {
		e.stats.Mul++
	}
	return v, err
}

// BoolAnd implements share.Backend.BoolAnd.
func (e *Engine) BoolAnd(a, b *share.Value) (*share.Value, error) {
	v, err := e.binary(opAnd, share.Boolean, a, b)
	if err == nil {
		e.stats.And++
	}
	return v, err
}

// BoolOr implements share.Backend.BoolOr.
func (e *Engine) BoolOr(a, b *share.Value) (*share.Value, error) {
	v, err := e.binary(opOr, share.Boolean, a, b)
	if err == nil {
		e.stats.And++
	}
	return v, err
}

// BoolXor implements share.Backend.BoolXor.
func (e *Engine) BoolXor(a, b *share.Value) (*share.Value, error) {
	return e.binary(opXor, share.Boolean, a, b)
}

// BoolNot implements share.Backend.BoolNot.
func (e *Engine) BoolNot(a *share.Value) (*share.Value, error) {
	return e.unary(opNot, share.Boolean, a)
}

// Convert implements share.Backend.Convert.
func (e *Engine) Convert(a *share.Value, target share.Repr) (
	*share.Value, error) {

	if a == nil {
		return nil, xerrors.Errorf("convert: nil argument: %w",
			share.ErrArgument)
	}
	if a.Repr() == target {
		return a, nil
	}
	switch target {
	case share.Boolean:
		args, err := e.resolve("convert", share.Arithmetic, a)
		if err != nil {
			return nil, err
		}
		circ, err := e.circuit(opA2B, a.Width())
		if err != nil {
			return nil, err
		}
		e.stats.Conversions++
		return e.add(&node{
			op:   opA2B,
			args: args,
			circ: circ,
		}, a.Width(), share.Boolean, a.Batch())

	case share.Arithmetic:
		args, err := e.resolve("convert", share.Boolean, a)
		if err != nil {
			return nil, err
		}
		e.stats.Conversions++
		return e.add(&node{
			op:   opB2A,
			args: args,
		}, a.Width(), share.Arithmetic, a.Batch())

	default:
		return nil, xerrors.Errorf("convert: invalid target %v: %w",
			target, share.ErrRepresentation)
	}
}

// Concatenate implements share.Backend.Concatenate.
func (e *Engine) Concatenate(values []*share.Value) (*share.Value, error) {
	if len(values) == 0 {
		return nil, xerrors.Errorf("concatenate: no values: %w",
			share.ErrArgument)
	}
	var args []*node
	var width int
	for _, v := range values {
		n, err := e.resolve("concatenate", share.Boolean, v)
		if err != nil {
			return nil, err
		}
		if v.Batch() != values[0].Batch() {
			return nil, xerrors.Errorf("concatenate: batch mismatch: %w",
				share.ErrArgument)
		}
		args = append(args, n[0])
		width += v.Width()
	}
	if width > share.MaxWidth {
		return nil, xerrors.Errorf("concatenate: width %d: %w", width,
			share.ErrArgument)
	}
	return e.add(&node{
		op:   opConcat,
		args: args,
	}, width, share.Boolean, values[0].Batch())
}

// GreaterThan implements share.Backend.GreaterThan.
func (e *Engine) GreaterThan(a, b *share.Value) (*share.Value, error) {
	return e.compare(opGT, a, b)
}

// Equal implements share.Backend.Equal.
func (e *Engine) Equal(a, b *share.Value) (*share.Value, error) {
	return e.compare(opEQ, a, b)
}

func (e *Engine) compare(op opcode, a, b *share.Value) (*share.Value, error) {
	if _, err := e.resolve(op.String(), share.Boolean, a, b); err != nil {
		return nil, err
	}
	circ, err := e.circuit(op, a.Width())
	if err != nil {
		return nil, err
	}
	results, err := e.Evaluate(circ, a, b)
	if err != nil {
		return nil, err
	}
	e.stats.Comparisons++
	return results[0], nil
}

// Evaluate implements share.Backend.Evaluate.
func (e *Engine) Evaluate(c *circuit.Circuit, args ...*share.Value) (
	[]*share.Value, error) {

	if c == nil {
		return nil, xerrors.Errorf("evaluate: nil circuit: %w",
			share.ErrArgument)
	}
	if len(args) != len(c.Inputs) {
		return nil, xerrors.Errorf("evaluate: got %d arguments, expected %d: %w",
			len(args), len(c.Inputs), share.ErrArgument)
	}
	var nodes []*node
	for idx, arg := range args {
		n, err := e.resolve("evaluate", share.Boolean, arg)
		if err != nil {
			return nil, err
		}
		if arg.Width() != c.Inputs[idx].Size {
			return nil, xerrors.Errorf("evaluate: argument %d: width %d, expected %d: %w",
				idx, arg.Width(), c.Inputs[idx].Size, share.ErrArgument)
		}
		if arg.Batch() != args[0].Batch() {
			return nil, xerrors.Errorf("evaluate: batch mismatch: %w",
				share.ErrArgument)
		}
		nodes = append(nodes, n[0])
	}
	if len(c.Outputs) == 0 {
		return nil, xerrors.Errorf("evaluate: circuit has no outputs: %w",
			share.ErrArgument)
	}
	for _, out := range c.Outputs {
		if err := share.CheckShape(out.Size, 1); err != nil {
			return nil, xerrors.Errorf("evaluate: output %s: %w", out, err)
		}
	}
	if e.err != nil {
		return nil, e.err
	}

	cn := &node{
		op:   opCircuit,
		args: nodes,
		circ: c,
	}
	e.nodes = append(e.nodes, cn)
	e.stats.Circuits++

	var result []*share.Value
	for idx, out := range c.Outputs {
		v, err := e.add(&node{
			op:    opResult,
			args:  []*node{cn},
			index: idx,
		}, out.Size, share.Boolean, args[0].Batch())
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

func (e *Engine) circuit(op opcode, width int) (*circuit.Circuit, error) {
	key := circuitKey{
		op:    op,
		width: width,
	}
	c, ok := e.circuits[key]
	if ok {
		return c, nil
	}
	var err error
	switch op {
	case opGT:
		c, err = circuit.NewGreaterThan(width)
	case opEQ:
		c, err = circuit.NewEqual(width)
	case opA2B:
		c, err = circuit.NewMultiAdder(e.n, width)
	default:
		err = xerrors.Errorf("no circuit for %s", op)
	}
	if err != nil {
		return nil, err
	}
	e.circuits[key] = c
	return c, nil
}

// Reveal implements share.Backend.Reveal.
func (e *Engine) Reveal(v *share.Value) ([]uint64, error) {
	if e.err != nil {
		return nil, e.err
	}
	n := e.lookup(v)
	if n == nil {
		return nil, xerrors.Errorf("reveal: foreign value %v: %w", v,
			share.ErrArgument)
	}
	if !n.done {
		return nil, xerrors.Errorf("reveal: value %v not evaluated: %w", v,
			share.ErrArgument)
	}
	if n.revealed == nil {
		opened, err := e.open(n.share, v.Repr() == share.Boolean)
		if err != nil {
			return nil, e.fail(err)
		}
		mask := v.Mask()
		for i := range opened {
			opened[i] &= mask
		}
		n.revealed = opened
		e.logger.Debug().Stringer("value", v).Msg("revealed")
	}
	return append([]uint64(nil), n.revealed...), nil
}

// Finish implements share.Backend.Finish.
func (e *Engine) Finish() error {
	result := e.dealer.Finish()
	for _, conn := range e.peers {
		if conn == nil {
			continue
		}
		if err := conn.Close(); err != nil && result == nil {
			result = err
		}
	}
	if result != nil {
		return xerrors.Errorf("finish: %v: %w", result, share.ErrBackend)
	}
	e.logger.Debug().Msg("finished")
	return nil
}

// Abort closes all connections without flushing them. Blocked peers
// receive an error.
func (e *Engine) Abort() {
	for _, conn := range e.peers {
		if conn != nil {
			conn.Abort()
		}
	}
}

func (e *Engine) fail(err error) error {
	if e.err == nil {
		e.err = xerrors.Errorf("gmw: %v: %w", err, share.ErrBackend)
		e.logger.Error().Err(err).Msg("computation failed")
	}
	return e.err
}

func (e *Engine) random(n int) []uint64 {
	result := make([]uint64, n)
	for i := range result {
		result[i] = e.prg.Uint64()
	}
	return result
}
