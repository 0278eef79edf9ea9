package framering

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(seq uint64, size int) FrameInput {
	return FrameInput{
		Seq:       seq,
		Data:      bytes.Repeat([]byte{byte(seq)}, size),
		MediaType: "image/jpeg",
		Timestamp: time.Unix(1700000000, int64(seq)),
	}
}

func TestFrameRingBuffer_EnqueueDequeue(t *testing.T) {
	buffer := New(1024)
	assert.Equal(t, 1024, buffer.Capacity())
	assert.Equal(t, 0, buffer.Len())

	dropped, err := buffer.Enqueue(frame(1, 16))
	require.NoError(t, err)
	assert.Zero(t, dropped)
	assert.Equal(t, 1, buffer.Len())
	assert.Positive(t, buffer.Bytes())

	got, ok := buffer.Dequeue()
	require.True(t, ok)
	assert.Equal(t, uint64(1), got.Seq)
	assert.Equal(t, "image/jpeg", got.MediaType)
	assert.Equal(t, frame(1, 16).Data, got.Data)
	assert.True(t, got.Timestamp.Equal(time.Unix(1700000000, 1)))

	_, ok = buffer.Dequeue()
	assert.False(t, ok)
	assert.Equal(t, 0, buffer.Len())
}

func TestFrameRingBuffer_DequeueNKeepsOrder(t *testing.T) {
	buffer := New(4096)
	for i := uint64(0); i < 5; i++ {
		_, err := buffer.Enqueue(frame(i, 8))
		require.NoError(t, err)
	}

	batch := buffer.DequeueN(3)
	require.Len(t, batch, 3)
	for i, f := range batch {
		assert.Equal(t, uint64(i), f.Seq)
	}
	assert.Equal(t, 2, buffer.Len())

	rest := buffer.DequeueN(3)
	require.Len(t, rest, 2)
	assert.Equal(t, uint64(3), rest[0].Seq)
	assert.Equal(t, uint64(4), rest[1].Seq)
}

func TestFrameRingBuffer_PeekDoesNotConsume(t *testing.T) {
	buffer := New(4096)
	for i := uint64(0); i < 3; i++ {
		_, err := buffer.Enqueue(frame(i, 8))
		require.NoError(t, err)
	}

	peeked := buffer.PeekN(2)
	require.Len(t, peeked, 2)
	assert.Equal(t, uint64(0), peeked[0].Seq)
	assert.Equal(t, uint64(1), peeked[1].Seq)
	assert.Equal(t, 3, buffer.Len())
}

func TestFrameRingBuffer_EvictsOldestWhenFull(t *testing.T) {
	f := frame(0, 100)
	rec, err := f.MarshalBinary()
	require.NoError(t, err)
	recordSize := len(rec) + 4

	buffer := New(recordSize * 3)
	for i := uint64(0); i < 3; i++ {
		dropped, err := buffer.Enqueue(frame(i, 100))
		require.NoError(t, err)
		assert.Zero(t, dropped)
	}

	dropped, err := buffer.Enqueue(frame(3, 100))
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 3, buffer.Len())

	first, ok := buffer.Dequeue()
	require.True(t, ok)
	assert.Equal(t, uint64(1), first.Seq)
}

func TestFrameRingBuffer_RejectsOversizedFrame(t *testing.T) {
	buffer := New(64)
	_, err := buffer.Enqueue(frame(1, 128))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
	assert.Equal(t, 0, buffer.Len())
}

func TestFrameRingBuffer_Reset(t *testing.T) {
	buffer := New(1024)
	_, err := buffer.Enqueue(frame(1, 8))
	require.NoError(t, err)

	buffer.Reset()
	assert.Equal(t, 0, buffer.Len())
	assert.Equal(t, 0, buffer.Bytes())
}

func TestFrameInput_UnmarshalShort(t *testing.T) {
	var f FrameInput
	assert.ErrorIs(t, f.UnmarshalBinary([]byte{1, 2, 3}), ErrShortFrame)
}
