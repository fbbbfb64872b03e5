// Package command implements the RESP command dispatcher: one handler
// function per command name, an arity table for fast rejection of
// malformed invocations, and the session state (selected DB, pub/sub
// subscription mode) a handler needs beyond the keyspace itself.
//
// Grounded on the teacher's CommandHandler.registerXCommands family
// (internal/handler/handler.go): a name->func map built at construction
// time from per-category registration methods, generalized here to also
// carry arity and a "valid while subscribed" flag per spec.md §4.4 (only
// a handful of commands remain callable once a connection enters
// subscriber mode).
package command

import (
	"fmt"
	"strings"
	"sync"

	"redisd/internal/resp"
	"redisd/internal/store"

	"go.uber.org/zap"
)

// Session is the per-connection state a handler can observe or mutate.
// The conn package owns the concrete connection; Session exposes only
// what command handlers need, keeping this package free of net.Conn and
// I/O concerns.
type Session struct {
	Keyspace        *store.Keyspace
	DBIndex         int
	Name            string
	ID              int64
	Subscriber      *store.Subscriber // non-nil once SUBSCRIBE/PSUBSCRIBE has been used
	inSubscribeMode bool
	quit            bool
}

func (s *Session) DB() *store.Database { return s.Keyspace.DB(s.DBIndex) }

func (s *Session) InSubscribeMode() bool { return s.inSubscribeMode }

func (s *Session) SetSubscribeMode(on bool) { s.inSubscribeMode = on }

// Quit reports whether QUIT has been processed; the connection runtime
// closes the socket after flushing the reply this dispatch produced.
func (s *Session) Quit() bool { return s.quit }

// Handler executes one command and returns the reply to send back.
// Pub/sub side effects are performed by the handler itself; AOF
// propagation of successful write commands is done by Dispatch.
type Handler func(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error)

// spec describes one command's dispatch metadata.
type spec struct {
	fn   Handler
	// arity follows the Redis convention: a positive N requires exactly N
	// arguments (including the command name); a negative N requires at
	// least -N.
	arity int
	// write marks commands that mutate the keyspace and must be
	// replicated to the AOF (spec.md §4.6).
	write bool
	// allowedWhileSubscribed marks the handful of commands a connection
	// may still issue after entering subscriber mode (spec.md §4.4).
	allowedWhileSubscribed bool
}

// AOFSink receives the exact argument vector of every successful write
// command, in the order executed, for durability logging (spec.md §4.6).
type AOFSink interface {
	Append(dbIndex int, args [][]byte)
}

// InfoProvider supplies the connection-runtime facts the INFO command
// needs but this package has no business tracking itself (socket
// counts, uptime, the server's run id). Left nil, INFO reports zero values
// for those fields rather than failing.
type InfoProvider interface {
	ConnectedClients() int
	UptimeSeconds() int64
	RunID() string
	AOFEnabled() bool
}

// Dispatcher holds the full command table plus the collaborators handlers
// need: an optional AOF sink, an optional info provider, a config store,
// and a logger. The keyspace is reached through each call's Session.
type Dispatcher struct {
	table      map[string]spec
	aof        AOFSink
	log        *zap.Logger
	info       InfoProvider
	configMu   sync.Mutex
	config     map[string]string
}

func NewDispatcher(log *zap.Logger) *Dispatcher {
	d := &Dispatcher{table: make(map[string]spec), log: log, config: defaultConfigParams()}
	d.registerGeneric()
	d.registerString()
	d.registerList()
	d.registerSet()
	d.registerZSet()
	d.registerHash()
	d.registerPubSub()
	d.registerServer()
	d.registerDump()
	return d
}

// SetAOFSink wires durability logging in; nil disables it (used during
// AOF replay itself, spec.md §4.6, so replayed writes are not re-logged).
func (d *Dispatcher) SetAOFSink(sink AOFSink) { d.aof = sink }

// SetInfoProvider wires the connection-runtime facts INFO reports.
func (d *Dispatcher) SetInfoProvider(p InfoProvider) { d.info = p }

func (d *Dispatcher) register(name string, arity int, write, allowedWhileSubscribed bool, fn Handler) {
	d.table[strings.ToLower(name)] = spec{fn: fn, arity: arity, write: write, allowedWhileSubscribed: allowedWhileSubscribed}
}

// unknownCommandReply builds the error Reply (not a Go error) returned
// when no handler matches; handlers never need to construct this
// themselves.
func unknownCommandReply(cmd *resp.Command) *resp.Reply {
	name := cmd.Name()
	args := make([]string, 0, len(cmd.Args)-1)
	for _, a := range cmd.Args[1:] {
		args = append(args, fmt.Sprintf("'%s'", a))
	}
	return resp.Error(fmt.Sprintf("ERR unknown command '%s', with args beginning with: %s", name, joinArgs(args)))
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}

func arityOK(arity, got int) bool {
	if arity >= 0 {
		return got == arity
	}
	return got >= -arity
}

// Dispatch looks up and invokes the handler for cmd, enforcing arity and
// subscriber-mode gating before calling it, and propagates successful
// write commands to the AOF sink if one is set.
func (d *Dispatcher) Dispatch(sess *Session, cmd *resp.Command) *resp.Reply {
	name := cmd.Name()
	sp, ok := d.table[name]
	if !ok {
		return unknownCommandReply(cmd)
	}
	if !arityOK(sp.arity, len(cmd.Args)) {
		return resp.Error(fmt.Sprintf("ERR wrong number of arguments for '%s' command", name))
	}
	if sess.InSubscribeMode() && !sp.allowedWhileSubscribed {
		return resp.Error(fmt.Sprintf("ERR Can't execute '%s': only (P|S)SUBSCRIBE / (P|S)UNSUBSCRIBE / PING / QUIT / RESET are allowed in this context", name))
	}

	// spec.md §5/§9: the database is a single owned aggregate behind one
	// exclusive lock. Dispatch holds it for the handler's entire
	// execution so that fetching a container value and mutating its
	// internals is one critical section, not two. A handler that blocks
	// (BLPOP and friends) unlocks around its wait and relocks before
	// retrying; see waitOnKeys.
	db := sess.DB()
	db.Lock()
	defer db.Unlock()
	reply, err := sp.fn(d, sess, cmd.Args)
	if err != nil {
		return errorReply(err)
	}
	if sp.write && d.aof != nil {
		d.aof.Append(sess.DBIndex, cmd.Args)
	}
	return reply
}

// errorReply maps a store-level sentinel error (or any other error) to
// its client-visible RESP error reply (spec.md §7).
func errorReply(err error) *resp.Reply {
	return resp.Error(mapErrorText(err))
}
