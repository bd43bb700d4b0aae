// Package serialization provides pluggable codecs and compression for
// persisting run snapshots.
package serialization

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes and decodes snapshot payloads.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error
	Name() string
}

// CompressionType selects the compression applied after encoding.
type CompressionType string

const (
	CompressionNone CompressionType = "none"
	CompressionGzip CompressionType = "gzip"
	CompressionZstd CompressionType = "zstd"
)

// JSONCodec encodes snapshots as JSON; human-readable, larger.
type JSONCodec struct{}

func (JSONCodec) Encode(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Decode(data []byte, v interface{}) error   { return json.Unmarshal(data, v) }
func (JSONCodec) Name() string                              { return "json" }

// MsgpackCodec encodes snapshots as MessagePack; compact, fast.
type MsgpackCodec struct{}

func (MsgpackCodec) Encode(v interface{}) ([]byte, error)    { return msgpack.Marshal(v) }
func (MsgpackCodec) Decode(data []byte, v interface{}) error { return msgpack.Unmarshal(data, v) }
func (MsgpackCodec) Name() string                            { return "msgpack" }

// Config holds serializer settings.
type Config struct {
	Codec       Codec
	Compression CompressionType
}

// Serializer runs the encode→compress pipeline and its inverse.
type Serializer struct {
	config Config
}

// NewSerializer creates a serializer. A nil codec defaults to msgpack.
func NewSerializer(config Config) *Serializer {
	if config.Codec == nil {
		config.Codec = MsgpackCodec{}
	}
	if config.Compression == "" {
		config.Compression = CompressionNone
	}
	return &Serializer{config: config}
}

// Marshal encodes and compresses v.
func (s *Serializer) Marshal(v interface{}) ([]byte, error) {
	data, err := s.config.Codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("encode (%s): %w", s.config.Codec.Name(), err)
	}
	return s.compress(data)
}

// Unmarshal decompresses and decodes data into v.
func (s *Serializer) Unmarshal(data []byte, v interface{}) error {
	raw, err := s.decompress(data)
	if err != nil {
		return err
	}
	if err := s.config.Codec.Decode(raw, v); err != nil {
		return fmt.Errorf("decode (%s): %w", s.config.Codec.Name(), err)
	}
	return nil
}

func (s *Serializer) compress(data []byte) ([]byte, error) {
	switch s.config.Compression {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("gzip compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("gzip close: %w", err)
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		w, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		defer w.Close()
		return w.EncodeAll(data, nil), nil
	default:
		return nil, fmt.Errorf("unknown compression type: %s", s.config.Compression)
	}
}

func (s *Serializer) decompress(data []byte) ([]byte, error) {
	switch s.config.Compression {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressionZstd:
		r, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer r.Close()
		return r.DecodeAll(data, nil)
	default:
		return nil, fmt.Errorf("unknown compression type: %s", s.config.Compression)
	}
}
