package cachesrv

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/lattice-kv/cachecore/internal/config"
)

func freeTCPPort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).AddrPort().String()
}

func TestServerStartStop(t *testing.T) {
	addr, err := net.ResolveTCPAddr("tcp", freeTCPPort(t))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	cfg := config.Config{
		ServerPort:        itoa(addr.Port),
		NumShards:         2,
		SockBufSize:       1 << 16,
		ConnQueueLimit:    128,
		EnableCompression: false,
		MetricsHost:       "127.0.0.1",
		MetricsPort:       "0",
	}

	srv, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	snap := srv.Snapshot()
	if len(snap.Shards) != 2 {
		t.Fatalf("len(Shards) = %d, want 2", len(snap.Shards))
	}

	cancel()
	srv.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{byte('0' + n%10)}, buf...)
		n /= 10
	}
	if neg {
		buf = append([]byte{'-'}, buf...)
	}
	return string(buf)
}
