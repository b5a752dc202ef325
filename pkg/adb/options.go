package adb

import (
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultHost ADB服务器默认地址
	DefaultHost = "127.0.0.1"
	// DefaultPort ADB服务器默认端口
	DefaultPort = 5037
	// DefaultTimeout 默认连接超时
	DefaultTimeout = 10 * time.Second
	// DefaultChunkSize RecvAll默认块大小
	DefaultChunkSize = 64 * 1024
)

// Dialer 建立TCP连接，测试中可替换
type Dialer interface {
	DialTimeout(network, address string, timeout time.Duration) (net.Conn, error)
}

type netDialer struct{}

func (netDialer) DialTimeout(network, address string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout(network, address, timeout)
}

// Options 连接配置选项
type Options struct {
	Host      string             // ADB服务器地址
	Port      int                // ADB服务器端口
	Timeout   time.Duration      // 连接超时
	ChunkSize int                // RecvAll块大小
	Logger    logrus.FieldLogger // 诊断日志
	Dialer    Dialer
}

// withDefaults 返回填充默认值后的副本
func (o *Options) withDefaults() *Options {
	opts := Options{}
	if o != nil {
		opts = *o
	}
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Dialer == nil {
		opts.Dialer = netDialer{}
	}
	return &opts
}

// Address 返回 host:port
func (o *Options) Address() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}
