package adb

import (
	"fmt"

	"github.com/pkg/errors"
)

// 协议常量
const (
	OKAY = "OKAY"
	FAIL = "FAIL"

	// HeaderLength 长度前缀的字节数
	HeaderLength = 4
	// MaxPayload 4位十六进制能表示的最大长度
	MaxPayload = 0xFFFF
)

// ErrPayloadTooLarge 数据超过4位十六进制长度前缀
var ErrPayloadTooLarge = errors.New("payload exceeds 0xFFFF bytes")

// EncodeLength 编码长度值（到16进制字符串）
func EncodeLength(length int) (string, error) {
	if length < 0 || length > MaxPayload {
		return "", errors.Wrapf(ErrPayloadTooLarge, "length %d", length)
	}
	return fmt.Sprintf("%04X", length), nil
}

// DecodeLength 解码4字节十六进制长度前缀。
// 只接受 0-9、a-f、A-F，不允许空白、符号或 0x 前缀。
func DecodeLength(header []byte) (int, error) {
	if len(header) != HeaderLength {
		return 0, &MalformedHeaderError{Header: header}
	}

	length := 0
	for _, c := range header {
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = c - '0'
		case c >= 'a' && c <= 'f':
			v = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			v = c - 'A' + 10
		default:
			return 0, &MalformedHeaderError{Header: header}
		}
		length = length<<4 | int(v)
	}
	return length, nil
}

// EncodeData 编码数据（添加长度前缀）
func EncodeData(data []byte) ([]byte, error) {
	prefix, err := EncodeLength(len(data))
	if err != nil {
		return nil, err
	}

	message := make([]byte, 0, HeaderLength+len(data))
	message = append(message, prefix...)
	return append(message, data...), nil
}
