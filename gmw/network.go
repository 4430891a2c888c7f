//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package gmw

import (
	"context"
	"sync"

	"github.com/markkurossi/obliv/dealer"
	"github.com/markkurossi/obliv/env"
	"github.com/markkurossi/obliv/p2p"
	"github.com/markkurossi/obliv/share"
	"golang.org/x/xerrors"
)

// Connect connects the party id to the dealer and to all other
// parties of the configuration over TCP. The party with the smaller
// ID dials and the party with the larger ID accepts.
func Connect(ctx context.Context, config *env.Config, id int) (
	*Engine, error) {

	n := len(config.Parties)
	if n < 2 {
		return nil, xerrors.Errorf("gmw: %d parties: %w", n,
			share.ErrConfiguration)
	}
	if id < 0 || id >= n {
		return nil, xerrors.Errorf("gmw: invalid party ID %d: %w", id,
			share.ErrConfiguration)
	}
	logger := config.GetLogger().With().Int("party", id).Logger()

	nw, err := p2p.Listen(config.Parties[id], id, logger)
	if err != nil {
		return nil, err
	}
	defer nw.Close()

	conn, err := p2p.Dial(ctx, config.Dealer, id, logger)
	if err != nil {
		return nil, err
	}
	dc, err := dealer.NewClient(id, conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	peers := make([]*p2p.Conn, n)
	abort := func() {
		conn.Close()
		for _, c := range peers {
			if c != nil {
				c.Close()
			}
		}
	}
	for peer := id + 1; peer < n; peer++ {
		c, err := p2p.Dial(ctx, config.Parties[peer], id, logger)
		if err != nil {
			abort()
			return nil, err
		}
		peers[peer] = c
	}
	var lower []int
	for peer := 0; peer < id; peer++ {
		lower = append(lower, peer)
	}
	accepted, err := nw.Accept(ctx, lower...)
	if err != nil {
		abort()
		return nil, err
	}
	for peer, c := range accepted {
		peers[peer] = c
	}
	logger.Info().Int("parties", n).Msg("network connected")

	return New(config, id, peers, dc)
}

// Simulate runs n parties and the dealer in goroutines connected with
// in-memory pipes. Each party runs prog with its engine. If any party
// fails, all connections are aborted and the first error is returned.
func Simulate(config *env.Config, n int,
	prog func(e *Engine) error) error {

	if n < 2 {
		return xerrors.Errorf("gmw: %d parties: %w", n,
			share.ErrConfiguration)
	}
	mesh := p2p.Mesh(n)
	dealerConns := make([]*p2p.Conn, n)
	partyConns := make([]*p2p.Conn, n)
	for i := 0; i < n; i++ {
		dealerConns[i], partyConns[i] = p2p.Pipe()
	}

	var once sync.Once
	var first error
	fail := func(err error) {
		once.Do(func() {
			first = err
			for i := 0; i < n; i++ {
				dealerConns[i].Abort()
				partyConns[i].Abort()
				for _, c := range mesh[i] {
					if c != nil {
						c.Abort()
					}
				}
			}
		})
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d, err := dealer.New(config, dealerConns)
		if err != nil {
			fail(err)
			return
		}
		if err := d.Serve(); err != nil {
			fail(err)
		}
		d.Close()
	}()

	for id := 0; id < n; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			dc, err := dealer.NewClient(id, partyConns[id])
			if err != nil {
				fail(err)
				return
			}
			e, err := New(config, id, mesh[id], dc)
			if err != nil {
				fail(err)
				return
			}
			if err := prog(e); err != nil {
				fail(err)
				return
			}
			if err := e.Finish(); err != nil {
				fail(err)
			}
		}(id)
	}
	wg.Wait()

	if first != nil {
		// Release the writers of the aborted connections.
		for i := 0; i < n; i++ {
			dealerConns[i].Close()
			partyConns[i].Close()
			for _, c := range mesh[i] {
				if c != nil {
					c.Close()
				}
			}
		}
	}

	return first
}
