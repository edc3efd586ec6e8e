package server

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/moonlightdb/moonlight/internal/resp"
)

var nextConnID uint64

// Peer represents a connected client. It wraps a network connection and
// provides synchronized methods for reading and writing RESP-encoded data,
// plus the per-connection state MULTI/WATCH/SUBSCRIBE need.
type Peer struct {
	id     uint64
	conn   net.Conn
	reader *resp.Decoder
	writer *resp.Encoder
	mu     sync.Mutex

	authenticated bool

	tx txState
}

// NewPeer initializes a new client peer from a network connection.
func NewPeer(conn net.Conn) *Peer {
	return &Peer{
		id:            atomic.AddUint64(&nextConnID, 1),
		conn:          conn,
		reader:        resp.NewDecoder(conn),
		writer:        resp.NewEncoder(conn),
		authenticated: false,
		tx:            newTxState(),
	}
}

// ID uniquely identifies this connection for the lifetime of the process,
// used as the pub/sub subscriber key and the WATCH/transaction map key.
func (p *Peer) ID() uint64 {
	return p.id
}

// Send encodes and writes a RESP value to the client. Thread-safe: it may
// be called both from the connection's own read loop and, for pub/sub
// pushes, from another goroutine delivering a PUBLISH.
func (p *Peer) Send(v resp.Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.writer.Write(v); err != nil {
		return err
	}
	return p.writer.Flush()
}

// Publish implements pubsub.Subscriber: it pushes a RESP "message" frame
// to the client, the out-of-band reply shape every subscribed connection
// expects from PUBLISH.
func (p *Peer) Publish(channel string, payload []byte) error {
	return p.Send(resp.MakeArray([]resp.Value{
		resp.MakeBulkString("message"),
		resp.MakeBulkString(channel),
		resp.MakeBulkString(string(payload)),
	}))
}

// ReadCommand reads and decodes the next RESP value from the client's
// input stream.
func (p *Peer) ReadCommand() (resp.Value, error) {
	return p.reader.Read()
}

// Close terminates the underlying network connection.
func (p *Peer) Close() error {
	return p.conn.Close()
}

// Flush sends all buffered data to the client.
func (p *Peer) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.Flush()
}

// InputBuffered returns the number of bytes that can be read from the
// current buffer.
func (p *Peer) InputBuffered() int {
	return p.reader.Buffered()
}
