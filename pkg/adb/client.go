package adb

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Client ADB客户端，每个请求使用一条独立的Transport
type Client struct {
	options *Options
}

// Device 设备信息
type Device struct {
	Serial string
	State  string
}

// NewClient 创建新的ADB客户端
func NewClient(options *Options) *Client {
	return &Client{
		options: options.withDefaults(),
	}
}

// Options 返回客户端使用的配置
func (c *Client) Options() *Options {
	return c.options
}

// Raw 发送服务请求并读取一个响应帧
func (c *Client) Raw(service string) ([]byte, error) {
	var value []byte
	err := WithTransport(c.options, func(t *Transport) error {
		if err := t.Request(service); err != nil {
			return err
		}
		var err error
		value, err = t.RecvResponse()
		return err
	})
	return value, err
}

// Version 获取ADB服务器版本
func (c *Client) Version() (int, error) {
	value, err := c.Raw("host:version")
	if err != nil {
		return 0, err
	}

	version, err := strconv.ParseInt(string(value), 16, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid version %q", value)
	}
	return int(version), nil
}

// Devices 列出所有设备
func (c *Client) Devices() ([]Device, error) {
	value, err := c.Raw("host:devices")
	if err != nil {
		return nil, err
	}
	return parseDevices(string(value)), nil
}

func parseDevices(value string) []Device {
	devices := make([]Device, 0)
	for _, line := range strings.Split(value, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		devices = append(devices, Device{Serial: fields[0], State: fields[1]})
	}
	return devices
}

// Kill 终止ADB服务器
func (c *Client) Kill() error {
	return WithTransport(c.options, func(t *Transport) error {
		return t.Request("host:kill")
	})
}

// Shell 在设备上执行命令并读取全部输出
func (c *Client) Shell(serial string, command string) ([]byte, error) {
	var output []byte
	err := WithTransport(c.options, func(t *Transport) error {
		if err := t.Request("host:transport:" + serial); err != nil {
			return err
		}
		if err := t.Request("shell:" + command); err != nil {
			return err
		}
		var err error
		output, err = t.RecvAll(0)
		return err
	})
	return output, err
}
