package framering

import (
	"encoding/binary"
	"errors"
	"time"
)

var ErrShortFrame = errors.New("frame record truncated")

// FrameInput is one captured image waiting for analysis.
type FrameInput struct {
	Seq       uint64
	Data      []byte
	MediaType string
	Timestamp time.Time
}

// record layout: seq(8) + timestamp(8) + mediaTypeLen(2) + mediaType + dataLen(4) + data
const headerSize = 8 + 8 + 2 + 4

func (f *FrameInput) MarshalBinary() ([]byte, error) {
	mt := []byte(f.MediaType)
	buf := make([]byte, headerSize+len(mt)+len(f.Data))

	offset := 0
	binary.LittleEndian.PutUint64(buf[offset:], f.Seq)
	offset += 8

	binary.LittleEndian.PutUint64(buf[offset:], uint64(f.Timestamp.UnixNano()))
	offset += 8

	binary.LittleEndian.PutUint16(buf[offset:], uint16(len(mt)))
	offset += 2
	copy(buf[offset:], mt)
	offset += len(mt)

	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(f.Data)))
	offset += 4
	copy(buf[offset:], f.Data)

	return buf, nil
}

func (f *FrameInput) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize {
		return ErrShortFrame
	}

	offset := 0
	f.Seq = binary.LittleEndian.Uint64(data[offset:])
	offset += 8

	f.Timestamp = time.Unix(0, int64(binary.LittleEndian.Uint64(data[offset:])))
	offset += 8

	mtLen := int(binary.LittleEndian.Uint16(data[offset:]))
	offset += 2
	if len(data) < offset+mtLen+4 {
		return ErrShortFrame
	}
	f.MediaType = string(data[offset : offset+mtLen])
	offset += mtLen

	dataLen := int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4
	if len(data[offset:]) < dataLen {
		return ErrShortFrame
	}
	f.Data = make([]byte, dataLen)
	copy(f.Data, data[offset:offset+dataLen])

	return nil
}

// FrameRingBuffer is a byte-bounded FIFO of frames. When full, the oldest
// frames are evicted to make room for new ones.
type FrameRingBuffer interface {
	// Enqueue stores a frame and reports how many older frames were evicted.
	Enqueue(frame FrameInput) (dropped int, err error)
	Dequeue() (FrameInput, bool)
	// DequeueN removes up to n frames in arrival order.
	DequeueN(n int) []FrameInput
	PeekN(n int) []FrameInput
	Len() int
	Bytes() int
	Capacity() int
	Reset()
}
