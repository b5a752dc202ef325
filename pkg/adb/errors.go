package adb

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotConnected 连接被拒绝后，Transport没有可用的流
	ErrNotConnected = errors.New("adb: transport has no connection")
	// ErrClosed Transport已经关闭
	ErrClosed = errors.New("adb: transport is closed")
)

// Error 类型定义
type (
	// ConnectError 连接失败（超时、不可达、DNS），拒绝连接除外
	ConnectError struct {
		Addr string
		Err  error
	}

	// PrematureEOFError 读满之前对端关闭
	PrematureEOFError struct {
		Expected int
		Received int
	}

	// MalformedHeaderError 长度前缀不是4位十六进制
	MalformedHeaderError struct {
		Header []byte
	}

	// FailError 服务器返回非OKAY状态
	FailError struct {
		Status  string
		Message []byte
	}
)

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to ADB server %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

func (e *PrematureEOFError) Error() string {
	return fmt.Sprintf("Premature end of stream, needed %d more bytes", e.Expected-e.Received)
}

func (e *MalformedHeaderError) Error() string {
	return fmt.Sprintf("malformed length header %q", e.Header)
}

func (e *FailError) Error() string {
	return fmt.Sprintf("Failure: '%s'", e.Message)
}
