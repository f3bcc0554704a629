package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// serveOn starts Serve on a fresh socket and stops it at cleanup.
func serveOn(t *testing.T, handler HandlerFunc) string {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "recast.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, listener, handler) }()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return socketPath
}

// rawOn accepts one connection on a fresh socket and hands it to fn.
func rawOn(t *testing.T, fn func(net.Conn)) string {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "recast.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		fn(conn)
	}()
	return socketPath
}

func TestSendRoundTrip(t *testing.T) {
	socketPath := serveOn(t, func(_ context.Context, req Request) Response {
		return Response{OK: true, State: "recording", Message: req.Command}
	})

	resp, err := Send(context.Background(), socketPath, Request{Command: "status"}, 200*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, Response{OK: true, State: "recording", Message: "status"}, resp)
}

func TestSendErrors(t *testing.T) {
	t.Run("garbage response", func(t *testing.T) {
		socketPath := rawOn(t, func(conn net.Conn) {
			_, _ = bufio.NewReader(conn).ReadBytes('\n')
			_, _ = conn.Write([]byte("not-json\n"))
		})
		_, err := Send(context.Background(), socketPath, Request{Command: "status"}, 200*time.Millisecond)
		require.ErrorContains(t, err, "decode response")
	})

	t.Run("closed without reply", func(t *testing.T) {
		socketPath := rawOn(t, func(net.Conn) {})
		_, err := Send(context.Background(), socketPath, Request{Command: "status"}, 200*time.Millisecond)
		require.ErrorContains(t, err, "read response")
	})
}

func TestServeRejectsMalformedRequest(t *testing.T) {
	socketPath := serveOn(t, func(context.Context, Request) Response { return Response{OK: true} })

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("not-json\n"))
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(line, &resp))
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "decode request")
}

func TestServeRejectsUnknownCommand(t *testing.T) {
	var called atomic.Bool
	socketPath := serveOn(t, func(context.Context, Request) Response {
		called.Store(true)
		return Response{OK: true}
	})

	resp, err := Send(context.Background(), socketPath, Request{Command: "toggle"}, 200*time.Millisecond)
	require.NoError(t, err)
	require.False(t, resp.OK)
	require.Equal(t, "unknown command: toggle", resp.Error)
	require.False(t, called.Load())
}

func TestForwardCarriesSessionFields(t *testing.T) {
	socketPath := serveOn(t, func(_ context.Context, req Request) Response {
		return Response{OK: true, State: "recording", Elapsed: 1.2, Source: "none", Session: "abc", Message: req.Command + " requested"}
	})

	resp, err := Forward(context.Background(), socketPath, "stop", 200*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "stop requested", resp.Message)
	require.Equal(t, 1.2, resp.Elapsed)
	require.Equal(t, "none", resp.Source)
	require.Equal(t, "abc", resp.Session)
}

func TestForwardWithoutOwner(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "recast.sock")

	_, err := Forward(context.Background(), socketPath, "start", 100*time.Millisecond)
	require.ErrorIs(t, err, ErrNoOwner)

	_, err = Forward(context.Background(), socketPath, "toggle", 100*time.Millisecond)
	require.ErrorContains(t, err, "unknown command")
}

func TestKnown(t *testing.T) {
	for _, command := range Commands {
		require.True(t, Known(command), command)
	}
	require.False(t, Known("cancel"))
	require.False(t, Known(""))
}

func TestProbe(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "recast.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, listener, HandlerFunc(func(context.Context, Request) Response {
			return Response{OK: true, State: "idle"}
		}))
	}()

	alive, err := Probe(context.Background(), socketPath, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, alive)

	cancel()
	require.NoError(t, <-done)

	alive, err = Probe(context.Background(), socketPath, 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, alive)
}
