//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package dealer

import (
	"context"

	"github.com/markkurossi/obliv/env"
	"github.com/markkurossi/obliv/p2p"
	"github.com/markkurossi/obliv/share"
	"golang.org/x/xerrors"
)

// Listen waits until all parties of the configuration have connected
// to the dealer address and creates the dealer for them.
func Listen(ctx context.Context, config *env.Config) (*Dealer, error) {
	n := len(config.Parties)
	if n < 2 {
		return nil, xerrors.Errorf("dealer: %d parties: %w", n,
			share.ErrConfiguration)
	}
	logger := config.GetLogger().With().Str("component", "dealer").Logger()

	nw, err := p2p.Listen(config.Dealer, -1, logger)
	if err != nil {
		return nil, err
	}
	defer nw.Close()

	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	accepted, err := nw.Accept(ctx, ids...)
	if err != nil {
		return nil, err
	}
	conns := make([]*p2p.Conn, n)
	for id, conn := range accepted {
		conns[id] = conn
	}
	logger.Info().Int("parties", n).Msg("all parties connected")

	return New(config, conns)
}
