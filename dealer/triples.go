//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package dealer

// Triples hold one party's shares of multiplication triples. For
// arithmetic triples the shares satisfy sum(C) = sum(A)*sum(B) mod
// 2^64 and for boolean triples xor(C) = xor(A)&xor(B).
type Triples struct {
	A []uint64
	B []uint64
	C []uint64
}

func newTriples(n int) *Triples {
	return &Triples{
		A: make([]uint64, n),
		B: make([]uint64, n),
		C: make([]uint64, n),
	}
}

// Len returns the number of triples.
func (t *Triples) Len() int {
	if t == nil {
		return 0
	}
	return len(t.A)
}

// Pool hands out triples in order.
type Pool struct {
	triples *Triples
	next    int
}

// NewPool creates a new pool from the triples.
func NewPool(t *Triples) *Pool {
	if t == nil {
		t = newTriples(0)
	}
	return &Pool{
		triples: t,
	}
}

// Take returns the next n triples from the pool. The function panics
// if the pool does not have n triples left.
func (p *Pool) Take(n int) (a, b, c []uint64) {
	if p.next+n > p.triples.Len() {
		panic("dealer: triple pool exhausted")
	}
	a = p.triples.A[p.next : p.next+n]
	b = p.triples.B[p.next : p.next+n]
	c = p.triples.C[p.next : p.next+n]
	p.next += n
	return
}

// Remaining returns the number of unused triples.
func (p *Pool) Remaining() int {
	return p.triples.Len() - p.next
}
