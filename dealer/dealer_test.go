//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package dealer

import (
	"sync"
	"testing"

	"github.com/markkurossi/obliv/env"
	"github.com/markkurossi/obliv/p2p"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestPRG(t *testing.T) {
	seed := make([]byte, SeedSize)
	seed[0] = 1

	p0, err := NewPRG(seed)
	require.NoError(t, err)
	p1, err := NewPRG(seed)
	require.NoError(t, err)

	seen := make(map[uint64]bool)
	for i := 0; i < 2000; i++ {
		v := p0.Uint64()
		require.Equal(t, v, p1.Uint64())
		require.False(t, seen[v])
		seen[v] = true
	}

	_, err = NewPRG(seed[:16])
	require.Error(t, err)
}

func TestTriples(t *testing.T) {
	const numParties = 3
	const arith = 1000
	const boolean = 700

	logger := zerolog.Nop()
	config := &env.Config{
		Logger: &logger,
	}

	var dealerConns []*p2p.Conn
	var partyConns []*p2p.Conn
	for i := 0; i < numParties; i++ {
		dc, pc := p2p.Pipe()
		dealerConns = append(dealerConns, dc)
		partyConns = append(partyConns, pc)
	}

	dealerErr := make(chan error, 1)
	go func() {
		d, err := New(config, dealerConns)
		if err != nil {
			dealerErr <- err
			return
		}
		err = d.Serve()
		d.Close()
		dealerErr <- err
	}()

	at := make([]*Triples, numParties)
	bt := make([]*Triples, numParties)
	errs := make([]error, numParties)

	var wg sync.WaitGroup
	for id := 0; id < numParties; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			client, err := NewClient(id, partyConns[id])
			if err != nil {
				errs[id] = err
				return
			}
			at[id], bt[id], errs[id] = client.Triples(arith, boolean)
			if errs[id] == nil {
				errs[id] = client.Finish()
			}
		}(id)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	require.NoError(t, <-dealerErr)

	for i := 0; i < arith; i++ {
		var a, b, c uint64
		for id := 0; id < numParties; id++ {
			a += at[id].A[i]
			b += at[id].B[i]
			c += at[id].C[i]
		}
		require.Equal(t, a*b, c, "arithmetic triple %d", i)
	}
	for i := 0; i < boolean; i++ {
		var a, b, c uint64
		for id := 0; id < numParties; id++ {
			a ^= bt[id].A[i]
			b ^= bt[id].B[i]
			c ^= bt[id].C[i]
		}
		require.Equal(t, a&b, c, "boolean triple %d", i)
	}
}

func TestPool(t *testing.T) {
	pool := NewPool(&Triples{
		A: []uint64{1, 2, 3},
		B: []uint64{4, 5, 6},
		C: []uint64{7, 8, 9},
	})
	a, b, c := pool.Take(2)
	require.Equal(t, []uint64{1, 2}, a)
	require.Equal(t, []uint64{4, 5}, b)
	require.Equal(t, []uint64{7, 8}, c)
	require.Equal(t, 1, pool.Remaining())
	require.Panics(t, func() {
		pool.Take(2)
	})
}
