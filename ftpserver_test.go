package ftprobe

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// mockFTPServer is a scripted FTP control-channel server for tests. It
// answers the minimal command set a login exchange needs and counts the
// credential attempts it sees.
type mockFTPServer struct {
	listener net.Listener
	wg       sync.WaitGroup
	closed   atomic.Bool

	// rejectFirst rejects this many PASS commands before accepting.
	// Negative means reject every attempt.
	rejectFirst int

	connections  atomic.Int64
	userCommands atomic.Int64
	passCommands atomic.Int64
	quitCommands atomic.Int64
}

// newMockFTPServer starts a server on 127.0.0.1:0. rejectFirst controls how
// many login attempts fail before one succeeds; pass -1 to reject all.
func newMockFTPServer(t *testing.T, rejectFirst int) *mockFTPServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := &mockFTPServer{listener: listener, rejectFirst: rejectFirst}
	s.wg.Add(1)
	go s.acceptLoop()

	t.Cleanup(s.Stop)
	return s
}

func (s *mockFTPServer) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return
			}
			continue
		}
		s.connections.Add(1)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *mockFTPServer) handle(conn net.Conn) {
	defer conn.Close()

	writeLine := func(line string) {
		conn.Write([]byte(line + "\r\n"))
	}

	writeLine("220 mock FTP server ready")

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		cmd := strings.ToUpper(line)
		if i := strings.IndexByte(cmd, ' '); i > 0 {
			cmd = cmd[:i]
		}

		switch cmd {
		case "USER":
			s.userCommands.Add(1)
			writeLine("331 Please specify the password.")
		case "PASS":
			n := s.passCommands.Add(1)
			if s.rejectFirst < 0 || n <= int64(s.rejectFirst) {
				writeLine("530 Login incorrect.")
			} else {
				writeLine("230 Login successful.")
			}
		case "QUIT":
			s.quitCommands.Add(1)
			writeLine("221 Goodbye.")
			return
		case "FEAT":
			writeLine("211-Features:")
			writeLine(" UTF8")
			writeLine("211 End")
		case "SYST":
			writeLine("215 UNIX Type: L8")
		case "TYPE", "OPTS", "NOOP":
			writeLine("200 OK.")
		default:
			writeLine("502 Command not implemented.")
		}
	}
}

// Stop shuts the server down and waits for handlers to drain.
func (s *mockFTPServer) Stop() {
	if s.closed.Swap(true) {
		return
	}
	s.listener.Close()
	s.wg.Wait()
}

// Port returns the port the server listens on.
func (s *mockFTPServer) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// closedPort returns a localhost port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()
	return port
}
