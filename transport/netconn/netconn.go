// Package netconn adapts a net.Conn into the transport.Transport a
// dispatcher (package srv) expects, for serving 9P2000.L over a TCP or
// unix-socket stream rather than a virtio queue. Grounded structurally
// on go9p's Conn.recv (p/srv/conn.go): read into a growing buffer,
// slice off complete size-prefixed frames, hand each to the dispatcher.
package netconn

import (
	"encoding/binary"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/virtio9p/ninep/p9"
	"github.com/virtio9p/ninep/srv"
)

// conn implements transport.Transport over a single net.Conn. Replies
// may complete out of order (handlers run one goroutine per request);
// writes are serialized with a mutex since net.Conn does not guarantee
// safe concurrent Write calls.
type conn struct {
	c   net.Conn
	log *logrus.Entry

	mu sync.Mutex
}

func (t *conn) Send(index uint32, reply []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.c.Write(reply)
	return err
}

func (t *conn) Abort(reason error) {
	t.log.WithError(reason).Warn("netconn: aborting connection")
	t.c.Close()
}

// Serve reads frames from c and dispatches each to s until c is closed
// or a read error occurs. index is always 0: a stream transport has no
// virtqueue descriptor slots to track, unlike a virtio transport.
func Serve(c net.Conn, s *srv.Srv, log *logrus.Entry) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	defer c.Close()

	t := &conn{c: c, log: log}

	msize := s.Msize()
	buf := make([]byte, msize)
	pos := 0
	for {
		if pos == len(buf) {
			grown := make([]byte, len(buf)*2)
			copy(grown, buf[:pos])
			buf = grown
		}

		n, err := c.Read(buf[pos:])
		if err != nil || n == 0 {
			return
		}
		pos += n

		for pos >= p9.FrameHeaderSize {
			size := binary.LittleEndian.Uint32(buf[:4])
			if size < p9.FrameHeaderSize {
				t.Abort(errBadFrameSize)
				return
			}
			if pos < int(size) {
				break
			}

			frame := make([]byte, size)
			copy(frame, buf[:size])
			s.HandleFrame(frame, 0, t)

			copy(buf, buf[size:pos])
			pos -= int(size)
		}
	}
}

var errBadFrameSize = badFrameSizeError{}

type badFrameSizeError struct{}

func (badFrameSizeError) Error() string { return "netconn: frame size smaller than header" }
