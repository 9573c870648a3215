// Package eventloop is the single-threaded, poll-based runtime: one
// goroutine owns a listening socket and every accepted connection, and is
// the only goroutine that ever touches the engine.
package eventloop

import (
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/lovelydayss/goredis-kernel/internal/conn"
	"github.com/lovelydayss/goredis-kernel/internal/dispatch"
	"github.com/lovelydayss/goredis-kernel/internal/engine"
	"github.com/lovelydayss/goredis-kernel/internal/wire"
	"github.com/lovelydayss/goredis-kernel/log"
)

// DefaultMaxMsg is the largest frame payload the loop will accept before
// marking the connection for close, used when New is given maxMsg <= 0.
const DefaultMaxMsg = 32 * 1024 * 1024

const readScratchSize = 64 * 1024

// Loop is the poll-driven runtime. It owns the listening
// fd, every accepted conn.Conn, and the stop pipe used to break out of
// Poll without a timeout.
type Loop struct {
	listenFd int

	conns map[int]*conn.Conn

	dispatch *dispatch.Table
	engine   *engine.Engine
	logger   log.Logger

	maxMsg int

	stopRead, stopWrite int
}

// New creates and binds the listening socket at addr (host:port, IPv4) but
// does not start accepting connections yet; call Run for that.
func New(addr string, maxMsg int, d *dispatch.Table, e *engine.Engine, logger log.Logger) (*Loop, error) {
	if maxMsg <= 0 {
		maxMsg = DefaultMaxMsg
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}

	sockAddr, err := resolveSockaddr(addr)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}

	if err := unix.Bind(fd, sockAddr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}

	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listen: %w", err)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("set listener non-blocking: %w", err)
	}

	pipeFds := make([]int, 2)
	if err := unix.Pipe2(pipeFds, unix.O_NONBLOCK); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("stop pipe: %w", err)
	}

	return &Loop{
		listenFd: fd,
		conns:    make(map[int]*conn.Conn),
		dispatch: d,
		engine:   e,
		logger:   logger,
		maxMsg:    maxMsg,
		stopRead:  pipeFds[0],
		stopWrite: pipeFds[1],
	}, nil
}

func resolveSockaddr(addr string) (*unix.SockaddrInet4, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid bind address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid bind port %q: %w", portStr, err)
	}

	ip := net.ParseIP(host)
	if host == "" {
		ip = net.IPv4zero
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("bind address %q is not IPv4", addr)
	}

	sa := &unix.SockaddrInet4{Port: port}
	copy(sa.Addr[:], ip4)
	return sa, nil
}

// Stop asks a running Run to return after its current poll pass. Safe to
// call from another goroutine (e.g. the signal watcher on lib/pool).
func (l *Loop) Stop() {
	unix.Write(l.stopWrite, []byte{0})
}

// Close releases the listening socket, the stop pipe, and every open
// connection. Call after Run returns.
func (l *Loop) Close() {
	for fd := range l.conns {
		unix.Close(fd)
	}
	l.conns = nil
	unix.Close(l.listenFd)
	unix.Close(l.stopRead)
	unix.Close(l.stopWrite)
}

// Run executes the poll loop until Stop is called or a fatal error occurs
// on the listener itself.
func (l *Loop) Run() error {
	for {
		stop, err := l.step()
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// step runs exactly one poll pass: build the readiness
// set, poll with no timeout, service every ready fd, then recompute intent
// bits and tear down closed connections.
func (l *Loop) step() (stop bool, err error) {
	pollFds := make([]unix.PollFd, 0, len(l.conns)+2)
	pollFds = append(pollFds, unix.PollFd{Fd: int32(l.listenFd), Events: unix.POLLIN})
	pollFds = append(pollFds, unix.PollFd{Fd: int32(l.stopRead), Events: unix.POLLIN})

	fdOrder := make([]int, 0, len(l.conns))
	for fd, c := range l.conns {
		var events int16 = unix.POLLERR
		if c.WantRead {
			events |= unix.POLLIN
		}
		if c.WantWrite {
			events |= unix.POLLOUT
		}
		pollFds = append(pollFds, unix.PollFd{Fd: int32(fd), Events: events})
		fdOrder = append(fdOrder, fd)
	}

	if _, err := unix.Poll(pollFds, -1); err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, fmt.Errorf("poll: %w", err)
	}

	if pollFds[1].Revents&unix.POLLIN != 0 {
		var buf [64]byte
		unix.Read(l.stopRead, buf[:])
		return true, nil
	}

	if pollFds[0].Revents&unix.POLLIN != 0 {
		l.acceptAll()
	}

	for i, fd := range fdOrder {
		revents := pollFds[i+2].Revents
		if revents == 0 {
			continue
		}
		c := l.conns[fd]
		if c == nil {
			continue
		}

		if revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			c.WantClose = true
			continue
		}
		if revents&unix.POLLIN != 0 {
			l.handleReadable(c)
		}
		if revents&unix.POLLOUT != 0 && !c.WantClose {
			l.handleWritable(c)
		}
	}

	l.recomputeIntents()
	l.teardownClosed()

	return false, nil
}

// acceptAll drains every pending connection on the listener. EAGAIN ends
// the loop silently.
func (l *Loop) acceptAll() {
	for {
		nfd, sa, err := unix.Accept4(l.listenFd, unix.SOCK_NONBLOCK)
		if err != nil {
			if err != unix.EAGAIN {
				l.logger.Warnf("accept: %v", err)
			}
			return
		}

		peer := peerAddrString(sa)
		l.conns[nfd] = conn.New(nfd, peer)
		l.logger.Debugf("accepted connection from %s (fd=%d)", peer, nfd)
	}
}

func peerAddrString(sa unix.Sockaddr) string {
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		return fmt.Sprintf("%d.%d.%d.%d:%d", in4.Addr[0], in4.Addr[1], in4.Addr[2], in4.Addr[3], in4.Port)
	}
	return "unknown"
}

// handleReadable reads once into a scratch buffer, then frames and
// dispatches as many complete requests as are buffered.
func (l *Loop) handleReadable(c *conn.Conn) {
	var scratch [readScratchSize]byte

	for {
		n, err := unix.Read(c.Fd, scratch[:])
		switch {
		case n > 0:
			c.AppendIncoming(scratch[:n])
		case n == 0:
			c.WantClose = true
			return
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			// nothing to read right now
		case err != nil:
			l.logger.Warnf("read fd=%d: %v", c.Fd, err)
			c.WantClose = true
			return
		}
		break
	}

	l.frameAndDispatch(c)

	if len(c.Outgoing()) > 0 {
		l.handleWritable(c)
	}
}

// frameAndDispatch repeatedly extracts complete frames from c's incoming
// queue, dispatches each, and appends the enveloped response to outgoing.
func (l *Loop) frameAndDispatch(c *conn.Conn) {
	for {
		buffered := c.Incoming()
		if len(buffered) < 4 {
			return
		}

		length := int(uint32(buffered[0]) | uint32(buffered[1])<<8 | uint32(buffered[2])<<16 | uint32(buffered[3])<<24)
		if length > l.maxMsg {
			l.logger.Warnf("fd=%d frame of %d bytes exceeds max %d, closing", c.Fd, length, l.maxMsg)
			c.WantClose = true
			return
		}
		if 4+length > len(buffered) {
			return
		}

		payload := buffered[4 : 4+length]
		args, perr := wire.ParseRequest(payload)

		var resp *wire.Response
		if perr != nil {
			resp = wire.NewErrResponse(wire.ErrProtocol, perr.Error())
			c.ConsumeIncoming(4 + length)
			l.writeEnvelope(c, resp)
			c.WantClose = true
			return
		}

		resp = l.dispatch.Dispatch(l.engine, args)
		c.ConsumeIncoming(4 + length)
		l.writeEnvelope(c, resp)
	}
}

func (l *Loop) writeEnvelope(c *conn.Conn, resp *wire.Response) {
	body := resp.Bytes()
	envelope := make([]byte, 4+len(body))
	n := uint32(len(body))
	envelope[0] = byte(n)
	envelope[1] = byte(n >> 8)
	envelope[2] = byte(n >> 16)
	envelope[3] = byte(n >> 24)
	copy(envelope[4:], body)
	c.AppendOutgoing(envelope)
}

// handleWritable attempts to drain c's outgoing queue without blocking.
func (l *Loop) handleWritable(c *conn.Conn) {
	for len(c.Outgoing()) > 0 {
		n, err := unix.Write(c.Fd, c.Outgoing())
		if n > 0 {
			c.ConsumeOutgoing(n)
		}
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return
		}
		if err != nil {
			l.logger.Warnf("write fd=%d: %v", c.Fd, err)
			c.WantClose = true
			return
		}
		if n == 0 {
			return
		}
	}
}

// recomputeIntents applies the back-pressure policy: want_write iff
// outgoing is non-empty, want_read iff outgoing is empty.
func (l *Loop) recomputeIntents() {
	for _, c := range l.conns {
		hasOutgoing := len(c.Outgoing()) > 0
		c.WantWrite = hasOutgoing
		c.WantRead = !hasOutgoing
	}
}

func (l *Loop) teardownClosed() {
	for fd, c := range l.conns {
		if !c.WantClose {
			continue
		}
		unix.Close(fd)
		delete(l.conns, fd)
		l.logger.Debugf("closed connection fd=%d (%s)", fd, c.PeerAddress())
	}
}

// ConnCount reports the number of currently open connections.
func (l *Loop) ConnCount() int { return len(l.conns) }
