//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

// RetryDelay defines the delay between failed connection attempts.
var RetryDelay = time.Second

// Network implements the listening side of a TCP peer-to-peer
// network. Each inbound connection starts with the peer's numeric ID.
type Network struct {
	ID       int
	logger   zerolog.Logger
	listener net.Listener
	accepted chan accepted
	done     chan struct{}
	once     sync.Once

	m     sync.Mutex
	conns []*Conn
}

type accepted struct {
	id   int
	conn *Conn
}

// Listen creates a new network listening at addr.
func Listen(addr string, id int, logger zerolog.Logger) (*Network, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, xerrors.Errorf("listen %s: %w", addr, err)
	}
	nw := &Network{
		ID:       id,
		logger:   logger.With().Int("node", id).Logger(),
		listener: listener,
		accepted: make(chan accepted),
		done:     make(chan struct{}),
	}
	go nw.acceptLoop()
	return nw, nil
}

// Addr returns the network's listener address.
func (nw *Network) Addr() net.Addr {
	return nw.listener.Addr()
}

// Close closes the network listener. Inbound connections that were
// not accepted are closed.
func (nw *Network) Close() error {
	nw.once.Do(func() {
		close(nw.done)
	})
	return nw.listener.Close()
}

// Stats returns the I/O stats of all connections of the network.
func (nw *Network) Stats() IOStats {
	nw.m.Lock()
	defer nw.m.Unlock()

	result := NewIOStats()
	for _, conn := range nw.conns {
		result = result.Add(conn.Stats)
	}
	return result
}

func (nw *Network) acceptLoop() {
	for {
		nc, err := nw.listener.Accept()
		if err != nil {
			nw.logger.Debug().Err(err).Msg("accept loop terminated")
			return
		}
		conn := NewConn(nc)

		id, err := conn.ReceiveUint32()
		if err != nil {
			nw.logger.Warn().Err(err).Msg("failed to read peer ID")
			conn.Close()
			continue
		}
		nw.logger.Debug().Int("peer", id).Str("remote", nc.RemoteAddr().String()).
			Msg("inbound connection")
		select {
		case nw.accepted <- accepted{
			id:   id,
			conn: conn,
		}:
		case <-nw.done:
			conn.Close()
			return
		}
	}
}

// Accept waits until all peers ids have connected to the network.
// Connections from unexpected or duplicate peers are closed.
func (nw *Network) Accept(ctx context.Context, ids ...int) (
	map[int]*Conn, error) {

	want := make(map[int]bool)
	for _, id := range ids {
		want[id] = true
	}
	result := make(map[int]*Conn)

	for len(result) < len(want) {
		select {
		case <-ctx.Done():
			for _, conn := range result {
				conn.Close()
			}
			return nil, xerrors.Errorf("accept: %w", ctx.Err())

		case <-nw.done:
			for _, conn := range result {
				conn.Close()
			}
			return nil, xerrors.Errorf("accept: %w", ErrClosed)

		case a := <-nw.accepted:
			if !want[a.id] {
				nw.logger.Warn().Int("peer", a.id).Msg("unexpected peer")
				a.conn.Close()
				continue
			}
			if _, ok := result[a.id]; ok {
				nw.logger.Warn().Int("peer", a.id).Msg("peer already connected")
				a.conn.Close()
				continue
			}
			result[a.id] = a.conn
			nw.track(a.conn)
		}
	}
	return result, nil
}

func (nw *Network) track(conn *Conn) {
	nw.m.Lock()
	nw.conns = append(nw.conns, conn)
	nw.m.Unlock()
}

// Dial connects to the peer at addr and identifies itself as self.
// Failed attempts are retried every RetryDelay until the context is
// done.
func Dial(ctx context.Context, addr string, self int,
	logger zerolog.Logger) (*Conn, error) {

	var dialer net.Dialer
	for {
		logger.Debug().Str("addr", addr).Msg("connecting")
		nc, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			logger.Info().Err(err).Str("addr", addr).
				Msgf("connect failed, retrying in %s", RetryDelay)
			select {
			case <-ctx.Done():
				return nil, xerrors.Errorf("dial %s: %w", addr, ctx.Err())
			case <-time.After(RetryDelay):
			}
			continue
		}
		logger.Debug().Str("addr", addr).Msg("connected")
		conn := NewConn(nc)

		if err := conn.SendUint32(self); err != nil {
			conn.Close()
			return nil, err
		}
		if err := conn.Flush(); err != nil {
			conn.Close()
			return nil, err
		}
		return conn, nil
	}
}
