// Package conn is the connection runtime: per-socket read/dispatch/write
// loops plus the listener that accepts them. Grounded on the teacher's
// RedisServer.handleConnection and CommandHandler.HandlePipeline
// (internal/server/redis_server.go, internal/handler/pipeline.go), with
// the pipeline's slow-log/transaction bookkeeping dropped (neither is in
// scope here) but its two central ideas kept: a blocking read loop that
// feeds buffered bytes to the protocol decoder and flushes whatever
// replies that produced, and a separate goroutine (StartMessagePump in
// the teacher) pumping pub/sub deliveries onto the same socket once a
// connection subscribes.
package conn

import (
	"bufio"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"redisd/internal/command"
	"redisd/internal/metrics"
	"redisd/internal/resp"
	"redisd/internal/store"
)

const readBufferSize = 16 * 1024

// Conn owns one accepted client's lifecycle: decoding commands off the
// socket, dispatching them, and serializing both command replies and
// pub/sub deliveries back onto the same writer.
type Conn struct {
	id   int64
	nc   net.Conn
	disp *command.Dispatcher
	sess *command.Session
	log  *zap.Logger
	met  *metrics.Registry

	idleTimeout time.Duration

	writeMu  sync.Mutex
	bw       *bufio.Writer
	pumpOnce sync.Once
	pumpStop chan struct{}
	pumpDone chan struct{}
}

// newConn wraps an accepted socket with a fresh dispatch session bound to
// logical database 0, the default every new connection starts on.
func newConn(id int64, nc net.Conn, ks *store.Keyspace, disp *command.Dispatcher, log *zap.Logger, met *metrics.Registry, idleTimeout time.Duration) *Conn {
	return &Conn{
		id:          id,
		nc:          nc,
		disp:        disp,
		sess:        &command.Session{Keyspace: ks, DBIndex: 0, ID: id},
		log:         log,
		met:         met,
		idleTimeout: idleTimeout,
		bw:          bufio.NewWriter(nc),
		pumpStop:    make(chan struct{}),
		pumpDone:    make(chan struct{}),
	}
}

// Serve runs the connection until the socket closes, a protocol error is
// fatal, or the client issues QUIT. It never returns an error; all
// failures are terminal for this connection and simply end the loop.
func (c *Conn) Serve() {
	defer c.teardown()

	dec := resp.NewDecoder()
	buf := make([]byte, readBufferSize)
	for {
		if c.idleTimeout > 0 {
			c.nc.SetReadDeadline(time.Now().Add(c.idleTimeout))
		}
		n, err := c.nc.Read(buf)
		if n > 0 {
			dec.Feed(buf[:n])
			if !c.drain(dec) {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// drain pulls every fully-framed command currently buffered, dispatches
// each, and flushes the accumulated replies once. It returns false when
// the connection must close (protocol error or QUIT).
func (c *Conn) drain(dec *resp.Decoder) bool {
	wrote := false
	for {
		cmd, err := dec.Next()
		if err != nil {
			if resp.IsIncomplete(err) {
				break
			}
			var pe *resp.ProtocolError
			if errors.As(err, &pe) {
				c.writeLocked(resp.Error("ERR Protocol error: " + pe.Detail))
				c.flushLocked()
				return false
			}
			return false
		}
		if len(cmd.Args) == 0 {
			continue
		}
		name := cmd.Name()
		reply := c.disp.Dispatch(c.sess, cmd)
		if c.met != nil {
			c.met.CommandsTotal.WithLabelValues(name).Inc()
			if name == "publish" {
				c.met.PubSubMessages.Inc()
			}
		}
		c.writeLocked(reply)
		wrote = true

		if c.sess.Subscriber != nil {
			c.pumpOnce.Do(func() { go c.pubsubPump() })
		}
		if c.sess.Quit() {
			c.flushLocked()
			return false
		}
	}
	if wrote {
		c.flushLocked()
	}
	return true
}

func (c *Conn) writeLocked(r *resp.Reply) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.bw.Write(resp.Bytes(r))
}

func (c *Conn) flushLocked() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.bw.Flush()
}

// pubsubPump drains the subscriber's inbox and writes each delivery
// straight to the socket, interleaved with command replies via the same
// write mutex so one never corrupts the other's frame (spec.md §4.4). It
// exits once teardown signals pumpStop; the inbox itself is never closed
// since Publish may still be selecting on sending to it concurrently.
func (c *Conn) pubsubPump() {
	defer close(c.pumpDone)
	for {
		select {
		case msg := <-c.sess.Subscriber.Inbox:
			var reply *resp.Reply
			if msg.Pattern != "" {
				reply = resp.Array(resp.BulkString("pmessage"), resp.BulkString(msg.Pattern), resp.BulkString(msg.Channel), resp.Bulk(msg.Payload))
			} else {
				reply = resp.Array(resp.BulkString("message"), resp.BulkString(msg.Channel), resp.Bulk(msg.Payload))
			}
			c.writeLocked(reply)
			c.flushLocked()
		case <-c.pumpStop:
			return
		}
	}
}

// teardown releases everything this connection accumulated: its pub/sub
// registration (if any), the socket itself, and waits for the pump
// goroutine to stop before returning.
func (c *Conn) teardown() {
	c.nc.Close()
	if c.sess.Subscriber != nil {
		c.sess.Keyspace.PubSub().Remove(c.sess.Subscriber)
		close(c.pumpStop)
		<-c.pumpDone
	}
}
