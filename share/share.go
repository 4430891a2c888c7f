//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package share defines secret-shared values and the interface of the
// secure computation backends operating on them.
package share

import (
	"fmt"
	"strings"

	"github.com/markkurossi/obliv/circuit"
	"golang.org/x/xerrors"
)

// Error classes.
var (
	ErrConfiguration  = xerrors.New("configuration error")
	ErrRepresentation = xerrors.New("representation error")
	ErrArgument       = xerrors.New("argument error")
	ErrBackend        = xerrors.New("backend error")
)

// MaxWidth defines the maximum bit width of a value.
const MaxWidth = 64

// Repr specifies the sharing representation of a value.
type Repr int

// Representations.
const (
	Arithmetic Repr = iota
	Boolean
)

func (r Repr) String() string {
	switch r {
	case Arithmetic:
		return "arithmetic"
	case Boolean:
		return "boolean"
	default:
		return fmt.Sprintf("{Repr %d}", int(r))
	}
}

// Protocol specifies the secure computation protocol.
type Protocol int

// Protocols.
const (
	GMW Protocol = iota
	BMR
	Yao
)

var protocols = map[Protocol]string{
	GMW: "gmw",
	BMR: "bmr",
	Yao: "yao",
}

func (p Protocol) String() string {
	name, ok := protocols[p]
	if ok {
		return name
	}
	return fmt.Sprintf("{Protocol %d}", int(p))
}

// Supported tests if the protocol has a backend implementation.
func (p Protocol) Supported() bool {
	return p == GMW
}

// ParseProtocol parses the protocol selector. Only the protocols with
// a backend implementation are accepted.
func ParseProtocol(name string) (Protocol, error) {
	for p, n := range protocols {
		if n == strings.ToLower(name) {
			if !p.Supported() {
				return p, xerrors.Errorf("protocol %s not supported: %w",
					n, ErrConfiguration)
			}
			return p, nil
		}
	}
	return GMW, xerrors.Errorf("unknown protocol '%s': %w", name,
		ErrConfiguration)
}

// Value is a handle to a secret-shared value. The handle carries only
// public metadata; the share itself is owned by the backend that
// created the value.
type Value struct {
	id    int
	width int
	repr  Repr
	batch int
}

// NewValue creates a value handle. Backends call this for each value
// they create.
func NewValue(id, width int, repr Repr, batch int) *Value {
	return &Value{
		id:    id,
		width: width,
		repr:  repr,
		batch: batch,
	}
}

// ID returns the backend-specific value ID.
func (v *Value) ID() int {
	return v.id
}

// Width returns the value width in bits.
func (v *Value) Width() int {
	return v.width
}

// Repr returns the value representation.
func (v *Value) Repr() Repr {
	return v.repr
}

// Batch returns the number of parallel instances in the value.
func (v *Value) Batch() int {
	return v.batch
}

// Mask returns the bit mask of the value width.
func (v *Value) Mask() uint64 {
	return Mask(v.width)
}

func (v *Value) String() string {
	return fmt.Sprintf("v%d{%s %d×%d}", v.id, v.repr, v.width, v.batch)
}

// Mask returns the bit mask with the width low bits set.
func Mask(width int) uint64 {
	if width >= 64 {
		return 0xffffffffffffffff
	}
	return uint64(1)<<width - 1
}

// Backend implements a secure computation protocol. All operations
// except Run, Reveal, and Finish only record work; the computation
// happens jointly with all parties at Run. Every party must call the
// same operations in the same order with the same public arguments.
type Backend interface {
	// ID returns the party ID of this backend instance.
	ID() int

	// NumParties returns the number of computing parties.
	NumParties() int

	// Input creates a value from the owner party's cleartext
	// input. The other parties provide a slice of the same length
	// whose contents are ignored.
	Input(owner, width int, repr Repr, values []uint64) (*Value, error)

	// Constant creates a value from public constants.
	Constant(width int, repr Repr, values []uint64) (*Value, error)

	// Add computes a+b mod 2^width for arithmetic values.
	Add(a, b *Value) (*Value, error)

	// Sub computes a-b mod 2^width for arithmetic values.
	Sub(a, b *Value) (*Value, error)

	// Neg computes -a mod 2^width for arithmetic values.
	Neg(a *Value) (*Value, error)

	// Mul computes a*b mod 2^width for arithmetic values.
	Mul(a, b *Value) (*Value, error)

	// GreaterThan tests if a>b for unsigned boolean values. The
	// result is a 1-bit boolean value.
	GreaterThan(a, b *Value) (*Value, error)

	// Equal tests if a==b for boolean values. The result is a 1-bit
	// boolean value.
	Equal(a, b *Value) (*Value, error)

	// BoolAnd computes the bitwise AND of boolean values.
	BoolAnd(a, b *Value) (*Value, error)

	// BoolOr computes the bitwise OR of boolean values.
	BoolOr(a, b *Value) (*Value, error)

	// BoolXor computes the bitwise XOR of boolean values.
	BoolXor(a, b *Value) (*Value, error)

	// BoolNot computes the bitwise negation of a boolean value.
	BoolNot(a *Value) (*Value, error)

	// Convert converts the value to the target representation.
	Convert(a *Value, target Repr) (*Value, error)

	// Concatenate concatenates boolean values. The first value
	// occupies the least significant bits of the result.
	Concatenate(values []*Value) (*Value, error)

	// Evaluate evaluates the boolean circuit with the argument
	// values. The arguments must match the circuit inputs in width
	// and the results match the circuit outputs.
	Evaluate(c *circuit.Circuit, args ...*Value) ([]*Value, error)

	// Run evaluates all pending operations with the other parties.
	Run() error

	// Reveal reconstructs the cleartext of the value. The value must
	// be evaluated with Run before it can be revealed.
	Reveal(v *Value) ([]uint64, error)

	// Finish terminates the backend.
	Finish() error
}
