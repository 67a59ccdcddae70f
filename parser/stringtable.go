package parser

import (
	"fmt"

	"github.com/icza/tf2demo/bitstream"
)

// instanceBaselineTable is the well-known string table name carrying
// static baselines, keyed by server class id (encoded directly as the
// entry's index in this simplified model; the real format keys by the
// class id's decimal-string representation).
const instanceBaselineTable = "instancebaseline"

// decodeStringTableEntry reads one string-table update: a NUL-terminated
// table name, a 16-bit entry index, a VarInt byte length (§4.6 — the wire
// format's own string-table blobs are length-prefixed this way), and that
// many raw bytes.
func decodeStringTableEntry(stream *bitstream.BitStream) (tableName string, index int, data []byte, err error) {
	tableName, err = stream.ReadString()
	if err != nil {
		return "", 0, nil, fmt.Errorf("reading table name: %w", err)
	}
	index, err = bitstream.ReadSized[int](stream, 16)
	if err != nil {
		return "", 0, nil, fmt.Errorf("reading entry index: %w", err)
	}
	length, err := bitstream.ReadVarUint32(stream)
	if err != nil {
		return "", 0, nil, fmt.Errorf("reading entry length: %w", err)
	}
	data = make([]byte, length)
	for i := range data {
		b, err := stream.ReadUint8()
		if err != nil {
			return "", 0, nil, fmt.Errorf("reading entry byte %d: %w", i, err)
		}
		data[i] = b
	}
	return tableName, index, data, nil
}
