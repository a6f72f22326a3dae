package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrFatal 连接已不可用：worker 据此递减存活计数并退出
	ErrFatal = errors.New("fatal connection error")
	// ErrTransient 当前没有数据（非阻塞读的正常结果），从不当作错误上报
	ErrTransient = errors.New("no data available")
	// ErrMalformed 帧无法解码，丢弃该帧
	ErrMalformed = errors.New("malformed frame")
)

// 帧首字节：负载是否经过 lz4 压缩
const (
	frameRaw byte = 0
	frameLZ4 byte = 1
)

// maxFrameSize 解压后的上限，防止恶意帧撑爆内存
const maxFrameSize = 1 << 20

// envelope 线上格式：{t: 类型, p: 负载}
type envelope struct {
	T Kind               `msgpack:"t"`
	P msgpack.RawMessage `msgpack:"p"`
}

// Codec 负责 Payload 与二进制帧之间的转换
// 编码后超过 CompressThreshold 字节的帧使用 lz4 压缩，<=0 表示不压缩
type Codec struct {
	CompressThreshold int
}

// Encode 编码为一帧
func (c Codec) Encode(p Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("encode: nil payload")
	}
	pb, err := msgpack.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", p.Kind(), err)
	}
	body, err := msgpack.Marshal(&envelope{T: p.Kind(), P: pb})
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	if c.CompressThreshold <= 0 || len(body) <= c.CompressThreshold {
		return append([]byte{frameRaw}, body...), nil
	}

	var buf bytes.Buffer
	buf.WriteByte(frameLZ4)
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode 解码一帧；任何格式问题都包装为 ErrMalformed
func (c Codec) Decode(b []byte) (Payload, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrMalformed)
	}

	body := b[1:]
	switch b[0] {
	case frameRaw:
	case frameLZ4:
		zr := lz4.NewReader(bytes.NewReader(body))
		out, err := io.ReadAll(io.LimitReader(zr, maxFrameSize+1))
		if err != nil {
			return nil, fmt.Errorf("%w: decompress: %v", ErrMalformed, err)
		}
		if len(out) > maxFrameSize {
			return nil, fmt.Errorf("%w: frame exceeds %d bytes", ErrMalformed, maxFrameSize)
		}
		body = out
	default:
		return nil, fmt.Errorf("%w: unknown frame flag %#x", ErrMalformed, b[0])
	}

	var env envelope
	if err := msgpack.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: envelope: %v", ErrMalformed, err)
	}
	if len(env.P) == 0 {
		return nil, fmt.Errorf("%w: empty payload for %s", ErrMalformed, env.T)
	}

	var p Payload
	switch env.T {
	case KindSnapshot:
		p = &Snapshot{}
	case KindDelta:
		p = &Delta{}
	default:
		return nil, fmt.Errorf("%w: unknown payload type %d", ErrMalformed, env.T)
	}
	if err := msgpack.Unmarshal(env.P, p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.T, err)
	}
	return p, nil
}
