package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/mstsirkin/interminai/internal/ptysession"
)

// MaxFrame is the largest newline-terminated request line the server will
// read before refusing the connection, per spec.md §4.4/§6.
const MaxFrame = 10 * 1024 * 1024

// Server binds a Unix socket and serves one short-lived connection handler
// per accepted client, dispatching each request against a single shared
// Session. Grounded on sshserver.go's Serve: the same
// "for { conn, err := listener.Accept(); go handle(conn) }" shape plus a
// ctx.Done()-closes-listener shutdown, with the SSH-specific bits replaced
// by newline-JSON framing.
type Server struct {
	listener   net.Listener
	socketPath string
	autoSocket bool

	dispatcher *Dispatcher
	logger     *slog.Logger

	stopOnce sync.Once
	stopped  chan struct{}
}

// Listen binds the Unix socket at path. If path already exists as a stale
// socket (no listener behind it), it is removed first, matching the
// remove-stale-socket-before-listen idiom used for PTY daemon sockets
// elsewhere in the example pack.
func Listen(path string, autoSocket bool) (net.Listener, error) {
	if err := removeStaleSocket(path); err != nil {
		return nil, err
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		l.Close()
		return nil, fmt.Errorf("chmod %s: %w", path, err)
	}
	return l, nil
}

func removeStaleSocket(path string) error {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	conn, dialErr := net.Dial("unix", path)
	if dialErr == nil {
		conn.Close()
		return fmt.Errorf("socket %s is already in use by another daemon", path)
	}

	return os.Remove(path)
}

// NewServer builds a Server over an already-bound listener and session.
func NewServer(listener net.Listener, socketPath string, autoSocket bool, session *ptysession.Session, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		listener:   listener,
		socketPath: socketPath,
		autoSocket: autoSocket,
		logger:     logger,
		stopped:    make(chan struct{}),
	}
	s.dispatcher = NewDispatcher(session, s.shutdown)
	return s
}

// Serve runs the accept loop until ctx is cancelled or STOP is received.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
			s.listener.Close()
		case <-s.stopped:
			s.listener.Close()
		}
	}()

	s.logger.Info("daemon listening", "socket", s.socketPath)

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopped:
				return nil
			default:
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				var netErr net.Error
				if errors.As(err, &netErr) && !netErr.Timeout() {
					return nil
				}
				s.logger.Error("accept error", "error", err)
				continue
			}
		}

		go s.handleConn(conn)
	}
}

// handleConn reads exactly one request line, dispatches it, and writes
// exactly one response line, except WAIT, where the handler blocks inside
// Dispatch until the condition resolves. A panic anywhere in a single
// command's handling is recovered so one bad request can never take down
// the accept loop.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recovered panic in connection handler", "panic", r)
			writeResponse(conn, respond(fatalErr(fmt.Sprintf("internal error: %v", r))))
		}
	}()

	reader := bufio.NewReaderSize(conn, 64*1024)
	line, err := readFrame(reader, MaxFrame)
	if err != nil {
		resp := respond(protocolErr("%v", err))
		writeResponse(conn, resp)
		return
	}

	resp := s.dispatcher.Dispatch(line)
	if resp.Status == "error" {
		s.logger.Debug("request failed", "error", resp.Error)
	}
	writeResponse(conn, resp)
}

// readFrame reads one newline-terminated line, refusing anything over max
// bytes; at most one reader buffer's worth past max is held before the
// refusal.
func readFrame(r *bufio.Reader, max int) ([]byte, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return nil, fmt.Errorf("read request: %v", err)
		}
		buf = append(buf, chunk...)
		if len(buf) > max {
			return nil, fmt.Errorf("request exceeds max frame size of %d bytes", max)
		}
		if !isPrefix {
			return buf, nil
		}
	}
}

func writeResponse(conn net.Conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(errResponse("failed to encode response"))
	}
	data = append(data, '\n')
	// A client that has already disconnected makes this write fail; that's
	// expected and not logged as a server error.
	conn.Write(data)
}

// shutdown stops the accept loop and unlinks an auto-generated socket file.
// It is reached from STOP and from Shutdown, and runs its body only once.
func (s *Server) shutdown() {
	s.stopOnce.Do(func() {
		close(s.stopped)
		if s.autoSocket {
			os.Remove(s.socketPath)
		}
	})
}

// Shutdown runs the same stop-accepting-and-unlink path as STOP, for
// callers outside the dispatcher — namely a caught SIGTERM/SIGINT, per
// spec.md §5's requirement that scoped resources (listening socket
// included) are released "along all exit paths... signal to daemon".
func (s *Server) Shutdown() {
	s.shutdown()
}
