package framering

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/smallnest/ringbuffer"
)

var ErrFrameTooLarge = errors.New("frame too large for buffer")

type rb_impl struct {
	mu    sync.Mutex
	size  int
	count int
	rb    *ringbuffer.RingBuffer
}

// Capacity implements FrameRingBuffer.
func (r *rb_impl) Capacity() int {
	return r.size
}

// Len implements FrameRingBuffer.
func (r *rb_impl) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Bytes implements FrameRingBuffer.
func (r *rb_impl) Bytes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rb.Length()
}

// Reset implements FrameRingBuffer.
func (r *rb_impl) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rb.Reset()
	r.count = 0
}

// Enqueue implements FrameRingBuffer.
func (r *rb_impl) Enqueue(frame FrameInput) (int, error) {
	data, err := frame.MarshalBinary()
	if err != nil {
		return 0, err
	}

	// size prefix + record
	required := len(data) + 4
	if required > r.size {
		return 0, ErrFrameTooLarge
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for r.rb.Free() < required {
		if _, ok := r.readRecord(); !ok {
			// framing lost, start over
			r.rb.Reset()
			r.count = 0
			break
		}
		r.count--
		dropped++
	}

	prefix := make([]byte, 4)
	binary.LittleEndian.PutUint32(prefix, uint32(len(data)))
	if _, err := r.rb.Write(prefix); err != nil {
		return dropped, err
	}
	if _, err := r.rb.Write(data); err != nil {
		return dropped, err
	}
	r.count++

	return dropped, nil
}

// Dequeue implements FrameRingBuffer.
func (r *rb_impl) Dequeue() (FrameInput, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dequeueLocked()
}

// DequeueN implements FrameRingBuffer.
func (r *rb_impl) DequeueN(n int) []FrameInput {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]FrameInput, 0, n)
	for len(out) < n {
		frame, ok := r.dequeueLocked()
		if !ok {
			break
		}
		out = append(out, frame)
	}
	return out
}

func (r *rb_impl) dequeueLocked() (FrameInput, bool) {
	data, ok := r.readRecord()
	if !ok {
		return FrameInput{}, false
	}
	r.count--

	var frame FrameInput
	if err := frame.UnmarshalBinary(data); err != nil {
		return FrameInput{}, false
	}
	return frame, true
}

// readRecord pops one length-prefixed record off the front of the buffer.
func (r *rb_impl) readRecord() ([]byte, bool) {
	if r.rb.IsEmpty() {
		return nil, false
	}

	prefix := make([]byte, 4)
	n, err := r.rb.Read(prefix)
	if err != nil || n != 4 {
		return nil, false
	}

	size := int(binary.LittleEndian.Uint32(prefix))
	data := make([]byte, size)
	if size > 0 {
		n, err = r.rb.Read(data)
		if err != nil || n != size {
			return nil, false
		}
	}
	return data, true
}

// PeekN implements FrameRingBuffer.
func (r *rb_impl) PeekN(n int) []FrameInput {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]FrameInput, 0, n)
	if r.rb.IsEmpty() {
		return result
	}

	buf := r.rb.Bytes(make([]byte, r.rb.Length()))

	offset := 0
	for len(result) < n && offset+4 <= len(buf) {
		size := int(binary.LittleEndian.Uint32(buf[offset:]))
		offset += 4
		if offset+size > len(buf) {
			break
		}

		var frame FrameInput
		if err := frame.UnmarshalBinary(buf[offset : offset+size]); err != nil {
			break
		}
		result = append(result, frame)
		offset += size
	}

	return result
}

func New(size int) FrameRingBuffer {
	return &rb_impl{
		size: size,
		rb:   ringbuffer.New(size).SetBlocking(false),
	}
}
