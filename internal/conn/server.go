// Package conn also provides Server: the listener(s) plus the background
// jobs a running instance needs (active expiration sweeps). Grounded on
// the teacher's RedisServer (internal/server/redis_server.go): one
// acceptor goroutine per bound address, a waitgroup tracking live
// connections for graceful shutdown, and max-connections enforcement at
// accept time.
package conn

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"redisd/internal/command"
	"redisd/internal/metrics"
	"redisd/internal/store"
)

// Options configures a Server beyond the keyspace/dispatcher it runs.
type Options struct {
	Binds          []string
	Port           int
	MaxConnections int
	IdleTimeout    time.Duration
	// ActiveExpireInterval is how often the background sweep runs; zero
	// disables it (lazy expiration on access still applies).
	ActiveExpireInterval time.Duration
	ActiveExpireBudget   int
}

// Server owns every listener, tracks live connections, and runs the
// active-expiration background job. It implements command.InfoProvider
// so INFO can report real connection counts and uptime.
type Server struct {
	opts Options
	ks   *store.Keyspace
	disp *command.Dispatcher
	log  *zap.Logger
	met  *metrics.Registry

	runID     string
	startedAt time.Time
	aofEnabled bool

	listeners  []net.Listener
	acceptors  *errgroup.Group
	connWG     sync.WaitGroup
	connCount  atomic.Int64
	nextConnID atomic.Int64
	conns      sync.Map // int64 -> net.Conn, so Shutdown can close idle sockets

	sched gocron.Scheduler

	closeOnce sync.Once
	closed    chan struct{}
}

func New(ks *store.Keyspace, disp *command.Dispatcher, log *zap.Logger, met *metrics.Registry, opts Options, aofEnabled bool) *Server {
	s := &Server{
		opts:       opts,
		ks:         ks,
		disp:       disp,
		log:        log,
		met:        met,
		runID:      uuid.NewString(),
		startedAt:  time.Now(),
		aofEnabled: aofEnabled,
		closed:     make(chan struct{}),
	}
	disp.SetInfoProvider(s)
	return s
}

// ConnectedClients, UptimeSeconds, RunID, AOFEnabled implement
// command.InfoProvider.
func (s *Server) ConnectedClients() int    { return int(s.connCount.Load()) }
func (s *Server) UptimeSeconds() int64     { return int64(time.Since(s.startedAt).Seconds()) }
func (s *Server) RunID() string            { return s.runID }
func (s *Server) AOFEnabled() bool         { return s.aofEnabled }

// Start binds every configured address, launches one acceptor per
// listener plus the active-expiration job, and returns once all
// listeners are bound (it does not block for the server's lifetime;
// call Shutdown to stop it).
func (s *Server) Start() error {
	var g errgroup.Group
	s.acceptors = &g
	for _, bind := range s.opts.Binds {
		addr := fmt.Sprintf("%s:%d", bind, s.opts.Port)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			s.closeListeners()
			return fmt.Errorf("conn: listen %s: %w", addr, err)
		}
		s.listeners = append(s.listeners, ln)
		s.log.Info("listening", zap.String("addr", addr))
		g.Go(func() error {
			s.accept(ln)
			return nil
		})
	}

	if s.opts.ActiveExpireInterval > 0 {
		sched, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("conn: scheduler: %w", err)
		}
		budget := s.opts.ActiveExpireBudget
		if budget <= 0 {
			budget = 20
		}
		if _, err := sched.NewJob(gocron.DurationJob(s.opts.ActiveExpireInterval), gocron.NewTask(func() {
			expired := s.ks.ActiveExpireAll(budget)
			if expired > 0 && s.met != nil {
				s.met.ExpiredKeysTotal.Add(float64(expired))
			}
		})); err != nil {
			return fmt.Errorf("conn: schedule active-expire: %w", err)
		}
		s.sched = sched
		sched.Start()
	}
	return nil
}

func (s *Server) accept(ln net.Listener) {
	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-s.closed:
				return
			default:
				s.log.Warn("accept error", zap.Error(err))
				continue
			}
		}
		if s.opts.MaxConnections > 0 && int(s.connCount.Load()) >= s.opts.MaxConnections {
			nc.Close()
			continue
		}
		s.connCount.Add(1)
		if s.met != nil {
			s.met.ConnectionsTotal.Inc()
			s.met.ConnectionsOpen.Set(float64(s.connCount.Load()))
		}
		id := s.nextConnID.Add(1)
		s.conns.Store(id, nc)
		s.connWG.Add(1)
		go func() {
			defer s.connWG.Done()
			defer s.connCount.Add(-1)
			defer s.conns.Delete(id)
			defer func() {
				if s.met != nil {
					s.met.ConnectionsOpen.Set(float64(s.connCount.Load()))
				}
			}()
			newConn(id, nc, s.ks, s.disp, s.log, s.met, s.opts.IdleTimeout).Serve()
		}()
	}
}

func (s *Server) closeListeners() {
	for _, ln := range s.listeners {
		ln.Close()
	}
}

// Shutdown stops accepting new connections, closes every listener and
// live socket, and waits (bounded by ctx) for their goroutines to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.closed) })
	s.closeListeners()
	if s.sched != nil {
		_ = s.sched.Shutdown()
	}
	s.conns.Range(func(_, v interface{}) bool {
		v.(net.Conn).Close()
		return true
	})

	done := make(chan struct{})
	go func() {
		if s.acceptors != nil {
			s.acceptors.Wait()
		}
		s.connWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
