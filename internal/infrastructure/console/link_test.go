package console

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vision-node/internal/log"
)

// listen принимает одно соединение и отдаёт его в канал.
func listen(t *testing.T) (string, <-chan net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	conns := make(chan net.Conn, 4)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			conns <- c
		}
	}()
	return ln.Addr().String(), conns
}

func accept(t *testing.T, conns <-chan net.Conn) net.Conn {
	t.Helper()
	select {
	case c := <-conns:
		t.Cleanup(func() { _ = c.Close() })
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no connection accepted")
		return nil
	}
}

func dial(t *testing.T, opts Options) *Link {
	t.Helper()
	l := NewLink(opts, log.Discard())
	require.NoError(t, l.Connect(context.Background()))
	return l
}

func testOptions(addr string) Options {
	return Options{
		Addr:         addr,
		WriteTimeout: time.Second,
		RetryInitial: time.Millisecond,
		RetryMax:     5 * time.Millisecond,
	}
}

func TestLink_RawWrite(t *testing.T) {
	addr, conns := listen(t)

	l := dial(t, testOptions(addr))
	defer l.Close()
	server := accept(t, conns)

	require.NoError(t, l.Write([]byte("frame-1")))
	require.NoError(t, l.Write([]byte("frame-2")))
	require.NoError(t, l.Close())

	got, err := io.ReadAll(server)
	require.NoError(t, err)
	require.Equal(t, "frame-1frame-2", string(got))
}

func TestLink_LengthFraming(t *testing.T) {
	addr, conns := listen(t)
	opts := testOptions(addr)
	opts.Framing = FramingLength

	l := dial(t, opts)
	defer l.Close()
	server := accept(t, conns)

	require.NoError(t, l.Write([]byte("abc")))

	var hdr [4]byte
	_, err := io.ReadFull(server, hdr[:])
	require.NoError(t, err)
	require.Equal(t, uint32(3), binary.BigEndian.Uint32(hdr[:]))

	body := make([]byte, 3)
	_, err = io.ReadFull(server, body)
	require.NoError(t, err)
	require.Equal(t, "abc", string(body))
}

func TestLink_RetriesUntilConnected(t *testing.T) {
	addr, conns := listen(t)
	l := NewLink(testOptions(addr), log.Discard())

	var calls atomic.Int32
	dialTCP := l.dial
	l.dial = func(ctx context.Context, a string) (net.Conn, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("connection refused")
		}
		return dialTCP(ctx, a)
	}

	require.NoError(t, l.Connect(context.Background()))
	accept(t, conns)
	require.Equal(t, int64(3), l.Attempts())
	require.NoError(t, l.Close())
}

func TestLink_ConnectCancelled(t *testing.T) {
	l := NewLink(testOptions("127.0.0.1:1"), log.Discard())
	l.dial = func(context.Context, string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Connect(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Greater(t, l.Attempts(), int64(1))
}

func TestLink_Reconnect(t *testing.T) {
	addr, conns := listen(t)

	l := dial(t, testOptions(addr))
	defer l.Close()
	first := accept(t, conns)

	require.NoError(t, l.Reconnect(context.Background()))
	second := accept(t, conns)

	// старое соединение закрыто
	_, err := first.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)

	require.NoError(t, l.Write([]byte("x")))
	buf := make([]byte, 1)
	_, err = io.ReadFull(second, buf)
	require.NoError(t, err)
}

func TestLink_CloseIsIdempotent(t *testing.T) {
	addr, conns := listen(t)

	l := dial(t, testOptions(addr))
	accept(t, conns)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	require.ErrorIs(t, l.Write([]byte("x")), ErrClosed)
	require.ErrorIs(t, l.Reconnect(context.Background()), ErrClosed)
}
