// Package server exposes the option-code dispatcher over a newline-delimited
// TCP text protocol and announces the service over mDNS. One request is a
// line of integers, the option code first; responses are a single "OK ..."
// or "ERR ..." line. All requests, from any number of connections, are
// serialized through the dispatcher.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/deepspace-ra/kband-frontend/internal/protocol"
	"github.com/deepspace-ra/kband-frontend/internal/storage"
)

// WithLogger sets the logger for the server.
func WithLogger(logger *slog.Logger) func(*Server) {
	return func(s *Server) {
		s.logger = logger.With(slog.String("component", "server"))
	}
}

// WithStore persists meter readings and minical runs dispatched through the
// server under the given session.
func WithStore(store storage.Store, sessionID int64) func(*Server) {
	return func(s *Server) {
		s.store = store
		s.sessionID = sessionID
	}
}

// Server accepts control connections and feeds their requests to the
// dispatcher one at a time.
type Server struct {
	dispatcher *protocol.Dispatcher
	logger     *slog.Logger

	store     storage.Store
	sessionID int64

	mu sync.Mutex // serializes dispatch across connections

	ln     net.Listener
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New creates a Server around a dispatcher with a discard logger.
func New(dispatcher *protocol.Dispatcher, options ...func(*Server)) *Server {
	s := Server{
		dispatcher: dispatcher,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

// Listen binds the control port. The returned address carries the resolved
// port when addr requested an ephemeral one.
func (s *Server) Listen(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("binding control port: %w", err)
	}
	s.ln = ln
	return ln.Addr(), nil
}

// Serve accepts connections until the context is cancelled. Listen must have
// been called first.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		return errors.New("server is not listening")
	}

	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		<-ctx.Done()
		_ = s.ln.Close()
	}()

	s.logger.Info("control server listening", slog.String("addr", s.ln.Addr().String()))

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			return fmt.Errorf("accepting connection: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// Stop closes the listener and waits for in-flight connections.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	logger := s.logger.With(slog.String("remote", conn.RemoteAddr().String()))
	logger.Debug("client connected")

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") {
			break
		}

		reply := s.handleLine(ctx, line, logger)
		if _, err := fmt.Fprintln(conn, reply); err != nil {
			logger.Warn(fmt.Sprintf("writing reply: %s", err.Error()))
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		logger.Warn(fmt.Sprintf("reading request: %s", err.Error()))
	}

	logger.Debug("client disconnected")
}

func (s *Server) handleLine(ctx context.Context, line string, logger *slog.Logger) string {
	code, args, err := parseRequest(line)
	if err != nil {
		return "ERR " + err.Error()
	}

	s.mu.Lock()
	result, err := s.dispatcher.Dispatch(code, args...)
	s.mu.Unlock()

	if err != nil {
		return "ERR " + err.Error()
	}

	s.persist(ctx, result, logger)
	return formatResult(result)
}

// persist records read results when a store is attached. Storage failures
// are logged but do not fail the request; the reading was still taken.
func (s *Server) persist(ctx context.Context, result protocol.Result, logger *slog.Logger) {
	if s.store == nil {
		return
	}

	switch result.Kind {
	case protocol.ResultReadings:
		if err := s.store.StoreReadings(ctx, s.sessionID, time.Now().UTC(), result.Readings); err != nil {
			logger.Error(fmt.Sprintf("storing readings: %s", err.Error()))
		}

	case protocol.ResultMinical:
		if err := s.store.StoreMinical(ctx, s.sessionID, result.Minical, result.MinicalResults); err != nil {
			logger.Error(fmt.Sprintf("storing minical run: %s", err.Error()))
		}
	}
}

func parseRequest(line string) (code int, args []int, err error) {
	fields := strings.Fields(line)

	code, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, nil, fmt.Errorf("malformed option code %q", fields[0])
	}

	for _, f := range fields[1:] {
		arg, err := strconv.Atoi(f)
		if err != nil {
			return 0, nil, fmt.Errorf("malformed argument %q", f)
		}
		args = append(args, arg)
	}
	return code, args, nil
}

func formatResult(r protocol.Result) string {
	switch r.Kind {
	case protocol.ResultText:
		return "OK " + strconv.Quote(r.Text)

	case protocol.ResultBool:
		if r.Bool {
			return "OK 1"
		}
		return "OK 0"

	case protocol.ResultReadings:
		parts := make([]string, 0, len(r.Readings))
		for _, reading := range r.Readings {
			parts = append(parts, fmt.Sprintf("%d=%.6e", reading.Index, reading.Mode.Convert(reading.Value)))
		}
		return "OK " + strings.Join(parts, " ")

	case protocol.ResultTemperatures:
		keys := make([]string, 0, len(r.Temperatures))
		for k := range r.Temperatures {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%.2f", k, r.Temperatures[k]))
		}
		return "OK " + strings.Join(parts, " ")

	case protocol.ResultChannelMap:
		parts := make([]string, 0, len(r.ChannelMap))
		for ch := 1; ch <= 4; ch++ {
			if v, ok := r.ChannelMap[ch]; ok {
				parts = append(parts, fmt.Sprintf("%d=%.3f", ch, v))
			}
		}
		return "OK " + strings.Join(parts, " ")

	case protocol.ResultMinical:
		parts := make([]string, 0, len(r.MinicalResults))
		for _, res := range r.MinicalResults {
			parts = append(parts, fmt.Sprintf("%d: gain=%.3e Tlin=%.2f Tquad=%.2f Tnd=%.2f NL=%.3f",
				res.Index, res.GainWPerK, res.TlinearK, res.TquadraticK, res.TndK, res.NonLinearity))
		}
		return "OK " + strings.Join(parts, "; ")
	}

	return "OK"
}
