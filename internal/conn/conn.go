// Package conn implements the per-socket byte buffers and intent flags the
// event loop drives: a pure buffer carrier that performs no I/O of its own.
package conn

// Conn holds one client socket's inbound/outbound byte queues plus the
// readiness flags the event loop consults when building its poll set. It is
// mutated only by the event loop goroutine.
type Conn struct {
	Fd int

	WantRead  bool
	WantWrite bool
	WantClose bool

	incoming []byte
	outgoing []byte

	peerAddr string
}

// New returns a freshly accepted connection, wanting to read.
func New(fd int, peerAddr string) *Conn {
	return &Conn{
		Fd:       fd,
		WantRead: true,
		peerAddr: peerAddr,
	}
}

// PeerAddress returns the remote address captured at accept time.
func (c *Conn) PeerAddress() string { return c.peerAddr }

// AppendIncoming appends newly read bytes to the inbound queue.
func (c *Conn) AppendIncoming(b []byte) {
	c.incoming = append(c.incoming, b...)
}

// Incoming returns the unconsumed inbound bytes.
func (c *Conn) Incoming() []byte { return c.incoming }

// ConsumeIncoming drops the first n bytes of the inbound queue, saturating
// at its length.
func (c *Conn) ConsumeIncoming(n int) {
	if n > len(c.incoming) {
		n = len(c.incoming)
	}
	c.incoming = c.incoming[n:]
}

// AppendOutgoing appends bytes to the outbound queue.
func (c *Conn) AppendOutgoing(b []byte) {
	c.outgoing = append(c.outgoing, b...)
}

// Outgoing returns the unconsumed outbound bytes.
func (c *Conn) Outgoing() []byte { return c.outgoing }

// ConsumeOutgoing drops the first n bytes of the outbound queue, saturating
// at its length.
func (c *Conn) ConsumeOutgoing(n int) {
	if n > len(c.outgoing) {
		n = len(c.outgoing)
	}
	c.outgoing = c.outgoing[n:]
}
