/*

Package demofile implements the outer demo container: the fixed header,
optional zstd-compressed body, and the per-tick message framing that
feeds the parser package one bit-stream view per packet. This is
explicitly outside the core decoder's scope (spec §1); it exists so the
core has something real to run against end to end.

*/
package demofile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/icza/tf2demo/bitstream"
	"github.com/icza/tf2demo/parser"
)

// magic is the fixed 8-byte signature every container starts with.
var magic = [8]byte{'T', 'F', '2', 'D', 'E', 'M', 'O', 1}

// zstdMagic flags a zstd-compressed body following the header.
var zstdMagic = [4]byte{'Z', 'S', 'T', 'D'}

// ErrBadMagic is returned when a buffer doesn't start with the expected
// container signature.
var ErrBadMagic = errors.New("demofile: not a tf2demo container")

// ErrTruncated is returned when the buffer ends mid-frame.
var ErrTruncated = errors.New("demofile: truncated frame")

// Header is the small set of descriptive fields carried once per demo.
type Header struct {
	ServerName string
	ClientName string
	MapName    string
	GameDir    string
	Playtime   float32
	TickCount  int32
}

// wireTag is the single-byte message type tag used on the wire, distinct
// from parser.MessageType so the container format can evolve independently
// of the core's dispatch enum.
type wireTag uint8

const (
	tagDataTable wireTag = iota + 1
	tagGameEventList
	tagGameEvent
	tagPacketEntities
	tagStringTable
	tagUserMessage
)

var tagToMessageType = map[wireTag]parser.MessageType{
	tagDataTable:      parser.MessageDataTable,
	tagGameEventList:  parser.MessageGameEventList,
	tagGameEvent:      parser.MessageGameEvent,
	tagPacketEntities: parser.MessagePacketEntities,
	tagStringTable:    parser.MessageStringTable,
	tagUserMessage:    parser.MessageUserMessage,
}

// Reader reads successive frames out of a decompressed, in-memory demo
// body. It implements parser.FrameSource.
type Reader struct {
	Header Header

	body []byte
	pos  int
}

// Open parses a demo buffer's header and, if present, inflates its
// zstd-compressed body, returning a Reader positioned at the first frame.
func Open(data []byte) (*Reader, error) {
	if len(data) < len(magic) || !bytes.Equal(data[:len(magic)], magic[:]) {
		return nil, ErrBadMagic
	}
	pos := len(magic)

	header, n, err := readHeader(data[pos:])
	if err != nil {
		return nil, fmt.Errorf("demofile: reading header: %w", err)
	}
	pos += n

	body := data[pos:]
	if len(body) >= len(zstdMagic) && bytes.Equal(body[:len(zstdMagic)], zstdMagic[:]) {
		inflated, err := inflateZstd(body[len(zstdMagic):])
		if err != nil {
			return nil, fmt.Errorf("demofile: inflating zstd body: %w", err)
		}
		body = inflated
	}

	return &Reader{Header: header, body: body}, nil
}

func inflateZstd(compressed []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

func readHeader(data []byte) (Header, int, error) {
	var h Header
	pos := 0

	readString := func() (string, error) {
		idx := bytes.IndexByte(data[pos:], 0)
		if idx < 0 {
			return "", ErrTruncated
		}
		s := string(data[pos : pos+idx])
		pos += idx + 1
		return s, nil
	}

	var err error
	if h.ServerName, err = readString(); err != nil {
		return h, 0, err
	}
	if h.ClientName, err = readString(); err != nil {
		return h, 0, err
	}
	if h.MapName, err = readString(); err != nil {
		return h, 0, err
	}
	if h.GameDir, err = readString(); err != nil {
		return h, 0, err
	}

	if pos+8 > len(data) {
		return h, 0, ErrTruncated
	}
	h.Playtime = float32(binary.LittleEndian.Uint32(data[pos:])) / 1000
	pos += 4
	h.TickCount = int32(binary.LittleEndian.Uint32(data[pos:]))
	pos += 4

	return h, pos, nil
}

// Next reads and returns the next frame: an 8-bit wire tag, a 32-bit tick
// number, a 32-bit byte length, and that many payload bytes wrapped in a
// fresh bitstream.BitStream.
func (r *Reader) Next() (parser.Frame, error) {
	if r.pos >= len(r.body) {
		return parser.Frame{}, parser.ErrEndOfDemo
	}
	if r.pos+9 > len(r.body) {
		return parser.Frame{}, ErrTruncated
	}

	tag := wireTag(r.body[r.pos])
	tick := int(binary.LittleEndian.Uint32(r.body[r.pos+1:]))
	length := int(binary.LittleEndian.Uint32(r.body[r.pos+5:]))
	r.pos += 9

	if r.pos+length > len(r.body) {
		return parser.Frame{}, ErrTruncated
	}
	payload := r.body[r.pos : r.pos+length]
	r.pos += length

	msgType, ok := tagToMessageType[tag]
	if !ok {
		msgType = parser.MessageUnknown
	}

	return parser.Frame{Tick: tick, Type: msgType, Stream: bitstream.New(payload)}, nil
}
