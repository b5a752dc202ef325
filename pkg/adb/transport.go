package adb

import (
	"bytes"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Transport 与ADB服务器之间的一条阻塞式TCP连接。
// 不支持并发使用：交错的读取会破坏帧边界。
type Transport struct {
	options *Options
	log     logrus.FieldLogger
	conn    net.Conn
	closed  bool
}

// Dial 连接ADB服务器。
// 对端拒绝连接时只记录日志，返回一个没有可用流的Transport；
// 其他连接错误以 *ConnectError 返回。
func Dial(options *Options) (*Transport, error) {
	opts := options.withDefaults()
	addr := opts.Address()
	t := &Transport{
		options: opts,
		log:     opts.Logger.WithField("addr", addr),
	}
	t.log.WithField("timeout", opts.Timeout).Debug("connecting to ADB server")

	conn, err := opts.Dialer.DialTimeout("tcp", addr, opts.Timeout)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			t.log.WithError(err).Error("ADB server refused connection")
			return t, nil
		}
		return nil, &ConnectError{Addr: addr, Err: err}
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			_ = conn.Close()
			return nil, errors.Wrap(err, "set no delay failed")
		}
	}

	t.conn = conn
	return t, nil
}

// WithTransport 建立连接并执行fn，无论fn如何返回都会关闭连接
func WithTransport(options *Options, fn func(*Transport) error) (err error) {
	t, err := Dial(options)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := t.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(t)
}

// Connected 是否持有可用的流
func (t *Transport) Connected() bool {
	return t.conn != nil
}

// RemoteAddress 获取远程地址
func (t *Transport) RemoteAddress() string {
	if t.conn != nil {
		return t.conn.RemoteAddr().String()
	}
	return ""
}

func (t *Transport) stream() (net.Conn, error) {
	if t.conn != nil {
		return t.conn, nil
	}
	if t.closed {
		return nil, ErrClosed
	}
	return nil, ErrNotConnected
}

// read 单次读取，可能少于len(p)。对端关闭时返回 io.EOF。
func (t *Transport) read(p []byte) (int, error) {
	conn, err := t.stream()
	if err != nil {
		return 0, err
	}
	n, err := conn.Read(p)
	if err != nil && err != io.EOF {
		return n, errors.Wrap(err, "failed to read from ADB server")
	}
	return n, err
}

// RecvAll 读取直到对端关闭。chunkSize<=0 时使用 Options.ChunkSize。
func (t *Transport) RecvAll(chunkSize int) ([]byte, error) {
	if chunkSize <= 0 {
		chunkSize = t.options.ChunkSize
	}

	var chunks [][]byte
	buf := make([]byte, chunkSize)
	pos := 0
	for {
		if pos == chunkSize {
			chunks = append(chunks, buf)
			buf = make([]byte, chunkSize)
			pos = 0
		}
		n, err := t.read(buf[pos:])
		pos += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	chunks = append(chunks, buf[:pos])
	return bytes.Join(chunks, nil), nil
}

// RecvExactly 读取恰好n个字节，不足时返回 *PrematureEOFError
func (t *Transport) RecvExactly(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.Errorf("invalid read length %d", n)
	}

	buf := make([]byte, n)
	pos := 0
	for pos < n {
		m, err := t.read(buf[pos:])
		pos += m
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if pos != n {
		return nil, &PrematureEOFError{Expected: n, Received: pos}
	}
	return buf, nil
}

// RecvResponse 读取一个4位十六进制长度前缀的帧
func (t *Transport) RecvResponse() ([]byte, error) {
	header, err := t.RecvExactly(HeaderLength)
	if err != nil {
		return nil, err
	}
	length, err := DecodeLength(header)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return []byte{}, nil
	}
	return t.RecvExactly(length)
}

// CheckOkay 检查前4个字节是否为 "OKAY"，否则读取错误信息帧
func (t *Transport) CheckOkay() error {
	status, err := t.RecvExactly(HeaderLength)
	if err != nil {
		return err
	}
	if string(status) == OKAY {
		return nil
	}

	message, err := t.RecvResponse()
	if err != nil {
		return err
	}
	return &FailError{Status: string(status), Message: message}
}

// Send 发送全部数据，返回自身以便链式调用
func (t *Transport) Send(data []byte) (*Transport, error) {
	conn, err := t.stream()
	if err != nil {
		return t, err
	}
	for len(data) > 0 {
		n, err := conn.Write(data)
		if err != nil {
			return t, errors.Wrap(err, "failed to write to ADB server")
		}
		if n == 0 {
			return t, io.ErrShortWrite
		}
		data = data[n:]
	}
	return t, nil
}

// Request 发送带长度前缀的服务请求并检查状态
func (t *Transport) Request(service string) error {
	message, err := EncodeData([]byte(service))
	if err != nil {
		return err
	}
	if _, err := t.Send(message); err != nil {
		return err
	}
	return t.CheckOkay()
}

// SetTimeout 设置后续读写的超时
func (t *Transport) SetTimeout(timeout time.Duration) error {
	conn, err := t.stream()
	if err != nil {
		return err
	}
	return conn.SetDeadline(time.Now().Add(timeout))
}

// ClearTimeout 清除超时
func (t *Transport) ClearTimeout() error {
	conn, err := t.stream()
	if err != nil {
		return err
	}
	return conn.SetDeadline(time.Time{})
}

// Close 关闭连接，可重复调用
func (t *Transport) Close() error {
	if t.conn == nil {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil
	t.closed = true
	t.log.Debug("transport closed")
	return err
}
