//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package dealer implements the commodity server that provides the
// computing parties with correlated randomness. The dealer shares a
// PRG seed with each party. Parties 1...N-1 expand their triple
// shares locally from their PRG and party 0 receives the correcting
// shares from the dealer.
package dealer

import (
	"io"

	"github.com/markkurossi/obliv/env"
	"github.com/markkurossi/obliv/p2p"
	"github.com/markkurossi/obliv/share"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

// Request opcodes.
const (
	OpTriples byte = iota + 1
	OpFinish
)

// MaxTriples defines the maximum number of triples in one request.
const MaxTriples = p2p.MaxVector

// Dealer implements the commodity server.
type Dealer struct {
	logger zerolog.Logger
	conns  []*p2p.Conn
	prgs   []*PRG
}

// New creates a new dealer for the parties connected with conns,
// indexed by party ID. The function sends each party its PRG seed.
func New(config *env.Config, conns []*p2p.Conn) (*Dealer, error) {
	if len(conns) < 2 {
		return nil, xerrors.Errorf("dealer: %d parties: %w", len(conns),
			share.ErrConfiguration)
	}
	d := &Dealer{
		logger: config.GetLogger().With().Str("component", "dealer").Logger(),
		conns:  conns,
	}
	for id, conn := range conns {
		seed := make([]byte, SeedSize)
		if _, err := io.ReadFull(config.GetRandom(), seed); err != nil {
			return nil, xerrors.Errorf("dealer: seed: %w", err)
		}
		prg, err := NewPRG(seed)
		if err != nil {
			return nil, err
		}
		d.prgs = append(d.prgs, prg)

		if err := conn.SendData(seed); err != nil {
			return nil, xerrors.Errorf("dealer: party %d: %v: %w",
				id, err, share.ErrBackend)
		}
		if err := conn.Flush(); err != nil {
			return nil, xerrors.Errorf("dealer: party %d: %v: %w",
				id, err, share.ErrBackend)
		}
	}
	d.logger.Debug().Int("parties", len(conns)).Msg("seeds sent")
	return d, nil
}

// Serve serves party 0 requests until the party finishes the
// session.
func (d *Dealer) Serve() error {
	conn := d.conns[0]
	for {
		op, err := conn.ReceiveByte()
		if err != nil {
			return xerrors.Errorf("dealer: %v: %w", err, share.ErrBackend)
		}
		switch op {
		case OpTriples:
			arith, err := conn.ReceiveUint32()
			if err != nil {
				return xerrors.Errorf("dealer: %v: %w", err, share.ErrBackend)
			}
			boolean, err := conn.ReceiveUint32()
			if err != nil {
				return xerrors.Errorf("dealer: %v: %w", err, share.ErrBackend)
			}
			if arith > MaxTriples || boolean > MaxTriples {
				return xerrors.Errorf("dealer: too many triples: %d+%d: %w",
					arith, boolean, share.ErrArgument)
			}
			id := xid.New()
			d.logger.Debug().Str("request", id.String()).
				Int("arithmetic", arith).Int("boolean", boolean).
				Msg("triples")

			if err := conn.SendUint64s(d.arithmetic(arith)); err != nil {
				return xerrors.Errorf("dealer: %v: %w", err, share.ErrBackend)
			}
			if err := conn.SendUint64s(d.boolean(boolean)); err != nil {
				return xerrors.Errorf("dealer: %v: %w", err, share.ErrBackend)
			}
			if err := conn.Flush(); err != nil {
				return xerrors.Errorf("dealer: %v: %w", err, share.ErrBackend)
			}

		case OpFinish:
			d.logger.Debug().Msg("finished")
			return nil

		default:
			return xerrors.Errorf("dealer: invalid request %d: %w",
				op, share.ErrBackend)
		}
	}
}

// Close closes all party connections.
func (d *Dealer) Close() error {
	var result error
	for _, conn := range d.conns {
		if err := conn.Close(); err != nil && result == nil {
			result = err
		}
	}
	return result
}

// arithmetic generates n arithmetic triples and returns party 0's C
// shares.
func (d *Dealer) arithmetic(n int) []uint64 {
	c0 := make([]uint64, n)
	for t := 0; t < n; t++ {
		var a, b, c uint64
		for id, prg := range d.prgs {
			a += prg.Uint64()
			b += prg.Uint64()
			if id > 0 {
				c += prg.Uint64()
			}
		}
		c0[t] = a*b - c
	}
	return c0
}

// boolean generates n boolean word triples and returns party 0's C
// shares.
func (d *Dealer) boolean(n int) []uint64 {
	c0 := make([]uint64, n)
	for t := 0; t < n; t++ {
		var a, b, c uint64
		for id, prg := range d.prgs {
			a ^= prg.Uint64()
			b ^= prg.Uint64()
			if id > 0 {
				c ^= prg.Uint64()
			}
		}
		c0[t] = a&b ^ c
	}
	return c0
}
