package audio

// RingBuffer keeps the most recent samples written to it.
// It is not safe for concurrent use.
type RingBuffer struct {
	buffer []int16
	head   int
	filled int
}

// NewRingBuffer creates a ring buffer holding size samples
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		buffer: make([]int16, size),
	}
}

// Len returns the capacity in samples
func (r *RingBuffer) Len() int {
	return len(r.buffer)
}

// Add appends samples, overwriting the oldest ones
func (r *RingBuffer) Add(samples []int16) {
	if len(r.buffer) == 0 {
		return
	}
	for _, s := range samples {
		r.buffer[r.head] = s
		r.head = (r.head + 1) % len(r.buffer)
	}
	r.filled += len(samples)
	if r.filled > len(r.buffer) {
		r.filled = len(r.buffer)
	}
}

// Read returns a copy of the whole buffer, oldest sample first
func (r *RingBuffer) Read() []int16 {
	samples := make([]int16, len(r.buffer))
	r.ReadInto(samples)
	return samples
}

// ReadInto copies the newest samples into dst so that the newest sample is
// last. If dst is longer than the buffer the leading part is zeroed.
// It returns the number of copied samples that were actually written.
func (r *RingBuffer) ReadInto(dst []int16) int {
	size := len(r.buffer)
	n := len(dst)
	if n > size {
		n = size
	}
	offset := len(dst) - n
	for i := 0; i < offset; i++ {
		dst[i] = 0
	}
	for i := 0; i < n; i++ {
		dst[offset+i] = r.buffer[(r.head-n+i+size)%size]
	}

	if r.filled < n {
		return r.filled
	}
	return n
}

// Clear zeroes the buffer
func (r *RingBuffer) Clear() {
	for i := range r.buffer {
		r.buffer[i] = 0
	}
	r.head = 0
	r.filled = 0
}
