package adb

import (
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers each accepted connection with handler
type fakeServer struct {
	l        net.Listener
	mu       sync.Mutex
	requests []string
}

func newFakeServer(t *testing.T, handler func(s *fakeServer, conn net.Conn)) *fakeServer {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeServer{l: l}
	t.Cleanup(func() { _ = l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				handler(s, conn)
			}()
		}
	}()
	return s
}

// readRequest reads one length-prefixed request
func (s *fakeServer) readRequest(conn net.Conn) string {
	header := make([]byte, HeaderLength)
	if _, err := io.ReadFull(conn, header); err != nil {
		return ""
	}
	n, err := DecodeLength(header)
	if err != nil {
		return ""
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(conn, body); err != nil {
		return ""
	}
	s.mu.Lock()
	s.requests = append(s.requests, string(body))
	s.mu.Unlock()
	return string(body)
}

func (s *fakeServer) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *fakeServer) client() *Client {
	logger, _ := test.NewNullLogger()
	return NewClient(&Options{
		Port:    s.l.Addr().(*net.TCPAddr).Port,
		Timeout: time.Second,
		Logger:  logger,
	})
}

func reply(conn net.Conn, status string, value string) {
	frame, _ := EncodeData([]byte(value))
	_, _ = conn.Write(append([]byte(status), frame...))
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(nil)
	assert.Equal(t, DefaultHost, c.Options().Host)
	assert.Equal(t, DefaultPort, c.Options().Port)
	assert.Equal(t, DefaultTimeout, c.Options().Timeout)
	assert.Equal(t, DefaultChunkSize, c.Options().ChunkSize)
}

func TestClientVersion(t *testing.T) {
	s := newFakeServer(t, func(s *fakeServer, conn net.Conn) {
		if s.readRequest(conn) == "host:version" {
			reply(conn, OKAY, "0029")
		}
	})

	version, err := s.client().Version()
	require.NoError(t, err)
	assert.Equal(t, 41, version)
	assert.Equal(t, []string{"host:version"}, s.seen())
}

func TestClientDevices(t *testing.T) {
	s := newFakeServer(t, func(s *fakeServer, conn net.Conn) {
		s.readRequest(conn)
		reply(conn, OKAY, "emulator-5554\tdevice\n0123456789ABCDEF\tunauthorized\n")
	})

	devices, err := s.client().Devices()
	require.NoError(t, err)
	assert.Equal(t, []Device{
		{Serial: "emulator-5554", State: "device"},
		{Serial: "0123456789ABCDEF", State: "unauthorized"},
	}, devices)
}

func TestClientDevicesEmpty(t *testing.T) {
	s := newFakeServer(t, func(s *fakeServer, conn net.Conn) {
		s.readRequest(conn)
		reply(conn, OKAY, "")
	})

	devices, err := s.client().Devices()
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestClientFailure(t *testing.T) {
	s := newFakeServer(t, func(s *fakeServer, conn net.Conn) {
		s.readRequest(conn)
		reply(conn, FAIL, "unknown host service")
	})

	_, err := s.client().Raw("host:bogus")
	var failErr *FailError
	require.ErrorAs(t, err, &failErr)
	assert.Equal(t, "unknown host service", string(failErr.Message))
}

func TestClientShell(t *testing.T) {
	s := newFakeServer(t, func(s *fakeServer, conn net.Conn) {
		if s.readRequest(conn) != "host:transport:emulator-5554" {
			reply(conn, FAIL, "device not found")
			return
		}
		_, _ = conn.Write([]byte(OKAY))
		s.readRequest(conn)
		_, _ = conn.Write([]byte(OKAY))
		_, _ = conn.Write([]byte("line one\n"))
		_, _ = conn.Write([]byte("line two\n"))
	})

	output, err := s.client().Shell("emulator-5554", "ls /sdcard")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(output))
	assert.Equal(t, []string{"host:transport:emulator-5554", "shell:ls /sdcard"}, s.seen())
}

func TestClientKill(t *testing.T) {
	s := newFakeServer(t, func(s *fakeServer, conn net.Conn) {
		s.readRequest(conn)
		_, _ = conn.Write([]byte(OKAY))
	})

	require.NoError(t, s.client().Kill())
	assert.Equal(t, []string{"host:kill"}, s.seen())
}

func TestClientRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	logger, hook := test.NewNullLogger()
	c := NewClient(&Options{Port: port, Timeout: time.Second, Logger: logger})

	_, err = c.Version()
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NotEmpty(t, hook.AllEntries())
}

func TestParseDevices(t *testing.T) {
	devices := parseDevices("a\tdevice\n\nbroken\nb offline\r\n")
	assert.Equal(t, []Device{
		{Serial: "a", State: "device"},
		{Serial: "b", State: "offline"},
	}, devices)
}
