package reactor

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// listen creates, tunes, binds, and starts listening on a non-blocking TCP
// socket for addr (a numeric port, e.g. "9001"). Socket tuning mirrors
// original_source/src/server/server.cpp's constructor: TCP_NODELAY,
// TCP_QUICKACK, SO_REUSEADDR/SO_REUSEPORT, SO_SNDBUF/SO_RCVBUF, and
// TCP_FASTOPEN. Options unsupported on the host platform are logged at
// debug level and otherwise ignored, matching the original's tolerance for
// some of these failing outside Linux.
func listen(addr string, sockBufSize int, backlog int, logger *zap.Logger) (int, error) {
	port, err := strconv.Atoi(addr)
	if err != nil {
		return -1, fmt.Errorf("reactor: invalid port %q: %w", addr, err)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return -1, fmt.Errorf("reactor: socket: %w", err)
	}

	setBestEffort(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1, "SO_REUSEADDR", logger)
	setBestEffort(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1, "SO_REUSEPORT", logger)
	setBestEffort(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1, "TCP_NODELAY", logger)
	setBestEffortQuickAck(fd, logger)
	setBestEffortFastOpen(fd, logger)
	if sockBufSize > 0 {
		setBestEffort(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, sockBufSize, "SO_SNDBUF", logger)
		setBestEffort(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, sockBufSize, "SO_RCVBUF", logger)
	}

	sa := &unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("reactor: bind %q: %w", addr, err)
	}
	if backlog <= 0 {
		backlog = 1024
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("reactor: listen: %w", err)
	}
	return fd, nil
}

func setBestEffort(fd, level, opt, value int, name string, logger *zap.Logger) {
	if err := unix.SetsockoptInt(fd, level, opt, value); err != nil {
		logger.Debug("reactor: socket option unsupported", zap.String("option", name), zap.Error(err))
	}
}

// TCP_QUICKACK isn't exposed as a typed constant on every GOOS this package
// might be vendored onto; set it via raw option number with best-effort
// semantics, matching the other options above.
func setBestEffortQuickAck(fd int, logger *zap.Logger) {
	const tcpQuickAck = 0xc // Linux TCP_QUICKACK
	setBestEffort(fd, unix.IPPROTO_TCP, tcpQuickAck, 1, "TCP_QUICKACK", logger)
}

func setBestEffortFastOpen(fd int, logger *zap.Logger) {
	const tcpFastOpen = 0x17 // Linux TCP_FASTOPEN
	setBestEffort(fd, unix.IPPROTO_TCP, tcpFastOpen, 5, "TCP_FASTOPEN", logger)
}

func setNonblocking(fd int) error {
	return unix.SetNonblock(fd, true)
}
