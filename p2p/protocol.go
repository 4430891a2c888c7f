//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"encoding/binary"
	"io"
	"sync/atomic"

	"golang.org/x/xerrors"
)

const (
	numBuffers   = 3
	writeBufSize = 64 * 1024
	readBufSize  = 1024 * 1024
)

// ErrClosed is returned when sending on a closed connection.
var ErrClosed = xerrors.New("connection closed")

// MaxVector defines the maximum number of elements in a vector
// received with ReceiveUint64s.
const MaxVector = 1 << 26

// Conn implements a buffered protocol connection. The connection
// writes its output from a separate writer goroutine so that the
// caller can fill the next buffer while the previous one is in
// transit.
type Conn struct {
	conn      io.ReadWriter
	writeBuf  []byte
	writePos  int
	readBuf   []byte
	readStart int
	readEnd   int
	Stats     IOStats

	fromWriter chan []byte
	toWriter   chan []byte
	writerErr  atomic.Value
	closed     bool
}

// IOStats implements I/O statistics.
type IOStats struct {
	Sent    *atomic.Uint64
	Recvd   *atomic.Uint64
	Flushed *atomic.Uint64
}

// NewIOStats creates a new I/O statistics object.
func NewIOStats() IOStats {
	return IOStats{
		Sent:    new(atomic.Uint64),
		Recvd:   new(atomic.Uint64),
		Flushed: new(atomic.Uint64),
	}
}

// Add adds the argument stats to this IOStats and returns the sum.
func (stats IOStats) Add(o IOStats) IOStats {
	result := NewIOStats()
	result.Sent.Store(stats.load(stats.Sent) + o.load(o.Sent))
	result.Recvd.Store(stats.load(stats.Recvd) + o.load(o.Recvd))
	result.Flushed.Store(stats.load(stats.Flushed) + o.load(o.Flushed))
	return result
}

func (stats IOStats) load(v *atomic.Uint64) uint64 {
	if v == nil {
		return 0
	}
	return v.Load()
}

// Sum returns sum of sent and received bytes.
func (stats IOStats) Sum() uint64 {
	return stats.load(stats.Sent) + stats.load(stats.Recvd)
}

// NewConn creates a new connection around the argument connection.
func NewConn(conn io.ReadWriter) *Conn {
	c := &Conn{
		conn:       conn,
		readBuf:    make([]byte, readBufSize),
		fromWriter: make(chan []byte, numBuffers),
		toWriter:   make(chan []byte, numBuffers),
		Stats:      NewIOStats(),
	}

	go c.writer()

	c.writeBuf = <-c.fromWriter

	return c
}

func (c *Conn) writer() {
	for i := 0; i < numBuffers; i++ {
		c.fromWriter <- make([]byte, writeBufSize)
	}

	for buf := range c.toWriter {
		if c.err() == nil {
			_, err := c.conn.Write(buf)
			if err != nil {
				c.writerErr.Store(err)
			}
		}
		c.fromWriter <- buf[0:cap(buf)]
	}
	close(c.fromWriter)
}

func (c *Conn) err() error {
	v := c.writerErr.Load()
	if v == nil {
		return nil
	}
	return v.(error)
}

// Flush flushes any pending data in the connection.
func (c *Conn) Flush() error {
	if c.closed {
		return ErrClosed
	}
	if c.writePos > 0 {
		c.Stats.Sent.Add(uint64(c.writePos))
		c.toWriter <- c.writeBuf[0:c.writePos]

		next := <-c.fromWriter
		if err := c.err(); err != nil {
			return xerrors.Errorf("flush: %w", err)
		}

		c.writeBuf = next
		c.writePos = 0
		c.Stats.Flushed.Add(1)
	}
	return nil
}

func (c *Conn) needSpace(count int) error {
	if c.writePos+count > len(c.writeBuf) {
		return c.Flush()
	}
	return nil
}

// fill fills the input buffer from the connection so that it holds
// at least n unread bytes. Any unused data in the buffer is moved to
// the beginning of the buffer.
func (c *Conn) fill(n int) error {
	if c.readStart < c.readEnd {
		copy(c.readBuf[0:], c.readBuf[c.readStart:c.readEnd])
		c.readEnd -= c.readStart
		c.readStart = 0
	} else {
		c.readStart = 0
		c.readEnd = 0
	}
	for c.readStart+n > c.readEnd {
		got, err := c.conn.Read(c.readBuf[c.readEnd:])
		if err != nil {
			return err
		}
		c.Stats.Recvd.Add(uint64(got))
		c.readEnd += got
	}
	return nil
}

func (c *Conn) shutdown() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.toWriter)
	for range c.fromWriter {
	}
}

// Close flushes any pending data and closes the connection.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	flushErr := c.Flush()
	c.shutdown()
	if flushErr != nil {
		return flushErr
	}
	if err := c.err(); err != nil {
		return err
	}
	closer, ok := c.conn.(io.Closer)
	if ok {
		return closer.Close()
	}
	return nil
}

// Abort closes the underlying connection without flushing pending
// data. Any goroutine blocked on the connection is released with an
// error.
func (c *Conn) Abort() error {
	closer, ok := c.conn.(io.Closer)
	if ok {
		return closer.Close()
	}
	return nil
}

// SendByte sends a byte value.
func (c *Conn) SendByte(val byte) error {
	if err := c.needSpace(1); err != nil {
		return err
	}
	c.writeBuf[c.writePos] = val
	c.writePos++
	return nil
}

// SendUint32 sends an uint32 value.
func (c *Conn) SendUint32(val int) error {
	if err := c.needSpace(4); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(c.writeBuf[c.writePos:], uint32(val))
	c.writePos += 4
	return nil
}

// SendUint64 sends an uint64 value.
func (c *Conn) SendUint64(val uint64) error {
	if err := c.needSpace(8); err != nil {
		return err
	}
	binary.BigEndian.PutUint64(c.writeBuf[c.writePos:], val)
	c.writePos += 8
	return nil
}

// SendUint64s sends a length-prefixed vector of uint64 values.
func (c *Conn) SendUint64s(vals []uint64) error {
	if err := c.SendUint32(len(vals)); err != nil {
		return err
	}
	for _, v := range vals {
		if err := c.SendUint64(v); err != nil {
			return err
		}
	}
	return nil
}

// SendData sends binary data.
func (c *Conn) SendData(val []byte) error {
	if err := c.SendUint32(len(val)); err != nil {
		return err
	}
	for len(val) > 0 {
		if c.writePos >= len(c.writeBuf) {
			if err := c.Flush(); err != nil {
				return err
			}
		}
		n := copy(c.writeBuf[c.writePos:], val)
		c.writePos += n
		val = val[n:]
	}
	return nil
}

// ReceiveByte receives a byte value.
func (c *Conn) ReceiveByte() (byte, error) {
	if c.readStart+1 > c.readEnd {
		if err := c.fill(1); err != nil {
			return 0, err
		}
	}
	val := c.readBuf[c.readStart]
	c.readStart++
	return val, nil
}

// ReceiveUint32 receives an uint32 value.
func (c *Conn) ReceiveUint32() (int, error) {
	if c.readStart+4 > c.readEnd {
		if err := c.fill(4); err != nil {
			return 0, err
		}
	}
	val := binary.BigEndian.Uint32(c.readBuf[c.readStart:])
	c.readStart += 4

	return int(val), nil
}

// ReceiveUint64 receives an uint64 value.
func (c *Conn) ReceiveUint64() (uint64, error) {
	if c.readStart+8 > c.readEnd {
		if err := c.fill(8); err != nil {
			return 0, err
		}
	}
	val := binary.BigEndian.Uint64(c.readBuf[c.readStart:])
	c.readStart += 8

	return val, nil
}

// ReceiveUint64s receives a length-prefixed vector of uint64 values.
func (c *Conn) ReceiveUint64s() ([]uint64, error) {
	n, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if n > MaxVector {
		return nil, xerrors.Errorf("vector too long: %d > %d", n, MaxVector)
	}
	result := make([]uint64, n)
	for i := range result {
		result[i], err = c.ReceiveUint64()
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ReceiveData receives binary data.
func (c *Conn) ReceiveData() ([]byte, error) {
	n, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	result := make([]byte, n)
	var pos int
	for pos < n {
		if c.readStart >= c.readEnd {
			if err := c.fill(1); err != nil {
				return nil, err
			}
		}
		got := copy(result[pos:], c.readBuf[c.readStart:c.readEnd])
		c.readStart += got
		pos += got
	}
	return result, nil
}
