//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package gmw

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/markkurossi/obliv/dealer"
	"github.com/markkurossi/obliv/share"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestConnect(t *testing.T) {
	const n = 3
	config := testConfig()
	config.Dealer = freeAddr(t)
	for i := 0; i < n; i++ {
		config.Parties = append(config.Parties, freeAddr(t))
	}
	require.NoError(t, config.Validate())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, n+1)
	results := make([][]uint64, n)

	wg.Add(1)
	go func() {
		defer wg.Done()
		d, err := dealer.Listen(ctx, config)
		if err != nil {
			errs[n] = err
			return
		}
		errs[n] = d.Serve()
		d.Close()
	}()

	for id := 0; id < n; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			e, err := Connect(ctx, config, id)
			if err != nil {
				errs[id] = err
				return
			}
			values := make([]uint64, 2)
			if id == 1 {
				values = []uint64{7, 9}
			}
			a, err := e.Input(1, 32, share.Arithmetic, values)
			if err != nil {
				errs[id] = err
				return
			}
			b, err := e.Mul(a, a)
			if err != nil {
				errs[id] = err
				return
			}
			r, err := reveal(e, b)
			if err != nil {
				e.Abort()
				errs[id] = err
				return
			}
			results[id] = r[0]
			errs[id] = e.Finish()
		}(id)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, r := range results {
		require.Equal(t, []uint64{49, 81}, r)
	}
}
