//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package dealer

import (
	"github.com/markkurossi/obliv/p2p"
	"github.com/markkurossi/obliv/share"
	"golang.org/x/xerrors"
)

// Client implements the party side of the dealer protocol.
type Client struct {
	id   int
	conn *p2p.Conn
	prg  *PRG
}

// NewClient creates a new dealer client for the party id. The
// function receives the party's PRG seed from the dealer.
func NewClient(id int, conn *p2p.Conn) (*Client, error) {
	seed, err := conn.ReceiveData()
	if err != nil {
		return nil, xerrors.Errorf("dealer seed: %v: %w", err, share.ErrBackend)
	}
	prg, err := NewPRG(seed)
	if err != nil {
		return nil, xerrors.Errorf("dealer seed: %v: %w", err, share.ErrBackend)
	}
	return &Client{
		id:   id,
		conn: conn,
		prg:  prg,
	}, nil
}

// Triples returns the party's shares of arith arithmetic triples and
// boolean boolean triples. All parties must call Triples with the
// same arguments.
func (c *Client) Triples(arith, boolean int) (*Triples, *Triples, error) {
	at := newTriples(arith)
	bt := newTriples(boolean)

	// The stream order matches the dealer: all arithmetic triples
	// first, then boolean triples.
	for _, t := range []*Triples{at, bt} {
		for i := range t.A {
			t.A[i] = c.prg.Uint64()
			t.B[i] = c.prg.Uint64()
			if c.id > 0 {
				t.C[i] = c.prg.Uint64()
			}
		}
	}
	if c.id > 0 || arith+boolean == 0 {
		return at, bt, nil
	}

	if err := c.conn.SendByte(OpTriples); err != nil {
		return nil, nil, c.backendError(err)
	}
	if err := c.conn.SendUint32(arith); err != nil {
		return nil, nil, c.backendError(err)
	}
	if err := c.conn.SendUint32(boolean); err != nil {
		return nil, nil, c.backendError(err)
	}
	if err := c.conn.Flush(); err != nil {
		return nil, nil, c.backendError(err)
	}
	c0, err := c.conn.ReceiveUint64s()
	if err != nil {
		return nil, nil, c.backendError(err)
	}
	if len(c0) != arith {
		return nil, nil, xerrors.Errorf("dealer: got %d triples, expected %d: %w",
			len(c0), arith, share.ErrBackend)
	}
	copy(at.C, c0)

	c0, err = c.conn.ReceiveUint64s()
	if err != nil {
		return nil, nil, c.backendError(err)
	}
	if len(c0) != boolean {
		return nil, nil, xerrors.Errorf("dealer: got %d triples, expected %d: %w",
			len(c0), boolean, share.ErrBackend)
	}
	copy(bt.C, c0)

	return at, bt, nil
}

// Finish terminates the dealer session. Only party 0 sends the finish
// request; the other parties close their connection.
func (c *Client) Finish() error {
	if c.id == 0 {
		if err := c.conn.SendByte(OpFinish); err != nil {
			return c.backendError(err)
		}
	}
	return c.conn.Close()
}

func (c *Client) backendError(err error) error {
	return xerrors.Errorf("dealer: %v: %w", err, share.ErrBackend)
}
