package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/coopnet/coopnet-core/internal/infrastructure/config"
	"github.com/coopnet/coopnet-core/internal/infrastructure/logging"
	"github.com/coopnet/coopnet-core/internal/protocol"
)

// writeTimeout bounds a single response write so one stalled client
// cannot block the dispatch goroutine indefinitely.
const writeTimeout = 10 * time.Second

// requestQueueSize is the dispatch channel depth. Readers block when
// the queue is full, which backpressures pipelining clients.
const requestQueueSize = 64

// request is one framed command line, forwarded by a reader goroutine
// to the dispatch goroutine.
type request struct {
	client *client
	cmd    protocol.Command
	args   string
}

// client wraps a connection with line-oriented writing. After the
// greeting, only the dispatch goroutine writes to it.
type client struct {
	conn net.Conn
}

// WriteLine sends one response line, newline-terminated.
func (c *client) WriteLine(line string) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.conn, "%s\n", line)
	return err
}

// Engine accepts TCP connections, frames request lines and funnels
// them into the single dispatch goroutine.
type Engine struct {
	cfg        config.ServerConfig
	dispatcher *Dispatcher
	log        *logging.Logger

	requests chan request

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewEngine creates an engine serving cfg.MaxClients concurrent
// connections through the given dispatcher.
func NewEngine(cfg config.ServerConfig, dispatcher *Dispatcher, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.Default()
	}
	return &Engine{
		cfg:        cfg,
		dispatcher: dispatcher,
		log:        log,
		requests:   make(chan request, requestQueueSize),
		conns:      make(map[net.Conn]struct{}),
	}
}

// ListenAndServe binds addr and serves until ctx is cancelled. A bind
// failure is fatal and returned; per-connection failures are not.
func (e *Engine) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return e.Serve(ctx, lis)
}

// Serve accepts connections from lis until ctx is cancelled.
func (e *Engine) Serve(ctx context.Context, lis net.Listener) error {
	e.log.Info("listening", "addr", lis.Addr().String(), "max_clients", e.cfg.MaxClients)

	go func() {
		<-ctx.Done()
		lis.Close()
		e.closeAll()
	}()
	go e.dispatchLoop(ctx)

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				e.log.Info("listener stopped")
				return nil
			}
			return fmt.Errorf("server: accept: %w", err)
		}
		if !e.register(conn) {
			// Full house: accept then close immediately. The client
			// sees a connection that ends before the greeting.
			e.log.Warn("client limit reached, closing connection",
				"remote", conn.RemoteAddr().String(), "max_clients", e.cfg.MaxClients)
			conn.Close()
			continue
		}
		go e.serveConn(ctx, conn)
	}
}

// serveConn greets the client, then frames lines and forwards them to
// the dispatch goroutine until the connection ends.
func (e *Engine) serveConn(ctx context.Context, conn net.Conn) {
	defer e.unregister(conn)

	c := &client{conn: conn}
	if err := c.WriteLine(protocol.Ready()); err != nil {
		e.log.Warn("greeting failed", "remote", conn.RemoteAddr().String(), "error", err)
		return
	}
	e.log.Info("client connected", "remote", conn.RemoteAddr().String())

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, e.cfg.MaxLineBytes), e.cfg.MaxLineBytes)
	for scanner.Scan() {
		cmd, args := protocol.ParseLine(scanner.Text())
		select {
		case e.requests <- request{client: c, cmd: cmd, args: args}:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			e.log.Warn("request line over limit, closing connection",
				"remote", conn.RemoteAddr().String(), "max_line_bytes", e.cfg.MaxLineBytes)
		} else {
			e.log.Info("client read ended", "remote", conn.RemoteAddr().String(), "error", err)
		}
		return
	}
	e.log.Info("client disconnected", "remote", conn.RemoteAddr().String())
}

// dispatchLoop is the single writer: every command from every
// connection runs here, in arrival order.
func (e *Engine) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-e.requests:
			resp := e.dispatcher.Dispatch(ctx, req.client, req.cmd, req.args)
			if resp == "" {
				continue
			}
			if err := req.client.WriteLine(resp); err != nil {
				e.log.Warn("response write failed", "error", err)
				req.client.conn.Close()
			}
		}
	}
}

func (e *Engine) register(conn net.Conn) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.conns) >= e.cfg.MaxClients {
		return false
	}
	e.conns[conn] = struct{}{}
	return true
}

func (e *Engine) unregister(conn net.Conn) {
	e.mu.Lock()
	delete(e.conns, conn)
	e.mu.Unlock()
	conn.Close()
}

func (e *Engine) closeAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for conn := range e.conns {
		conn.Close()
	}
}

// ActiveClients reports the number of registered connections.
func (e *Engine) ActiveClients() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.conns)
}
