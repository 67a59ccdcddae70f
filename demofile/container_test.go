package demofile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/icza/tf2demo/parser"
)

func buildHeader() []byte {
	var buf bytes.Buffer
	buf.WriteString("server\x00client\x00cp_badlands\x00tf\x00")
	var playtimeMs, ticks [4]byte
	binary.LittleEndian.PutUint32(playtimeMs[:], 1500) // 1.5s
	binary.LittleEndian.PutUint32(ticks[:], 100)
	buf.Write(playtimeMs[:])
	buf.Write(ticks[:])
	return buf.Bytes()
}

func buildFrame(tag wireTag, tick int, payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(tag))
	var tickBuf, lenBuf [4]byte
	binary.LittleEndian.PutUint32(tickBuf[:], uint32(tick))
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	buf.Write(tickBuf[:])
	buf.Write(lenBuf[:])
	buf.Write(payload)
	return buf.Bytes()
}

func TestOpenAndReadFramesUncompressed(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.Write(buildHeader())
	buf.Write(buildFrame(tagGameEventList, 1, []byte{0xAA}))
	buf.Write(buildFrame(tagPacketEntities, 2, []byte{0xBB, 0xCC}))

	r, err := Open(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Header.MapName != "cp_badlands" {
		t.Errorf("unexpected map name: %q", r.Header.MapName)
	}
	if r.Header.TickCount != 100 {
		t.Errorf("unexpected tick count: %d", r.Header.TickCount)
	}

	frame1, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame1.Tick != 1 || frame1.Type != parser.MessageGameEventList {
		t.Errorf("unexpected frame1: %+v", frame1)
	}

	frame2, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame2.Tick != 2 || frame2.Type != parser.MessagePacketEntities {
		t.Errorf("unexpected frame2: %+v", frame2)
	}

	if _, err := r.Next(); err != parser.ErrEndOfDemo {
		t.Errorf("expected ErrEndOfDemo, got %v", err)
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	if _, err := Open([]byte("not a demo")); err != ErrBadMagic {
		t.Errorf("expected ErrBadMagic, got %v", err)
	}
}

func TestOpenInflatesZstdBody(t *testing.T) {
	var body bytes.Buffer
	body.Write(buildFrame(tagGameEvent, 5, []byte{0x01, 0x02, 0x03}))

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	compressed := enc.EncodeAll(body.Bytes(), nil)
	enc.Close()

	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.Write(buildHeader())
	buf.Write(zstdMagic[:])
	buf.Write(compressed)

	r, err := Open(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	frame, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame.Tick != 5 || frame.Type != parser.MessageGameEvent {
		t.Errorf("unexpected frame: %+v", frame)
	}
}
