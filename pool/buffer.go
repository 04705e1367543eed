package pool

// BufferPool is a Pool specialization for fixed-size byte buffers, such as
// receive scratch space. No transport in this module draws its buffers from it.
type BufferPool struct {
	pool *Pool[[]byte]
	size int
}

// NewBufferPool creates a BufferPool of buffers sized bufSize, bounded to
// maxBuffers concurrently in-use buffers (0 = unbounded).
func NewBufferPool(bufSize, maxBuffers int) *BufferPool {
	bp := &BufferPool{size: bufSize}
	bp.pool = New[[]byte](
		func() []byte { return make([]byte, bufSize) },
		func(b *[]byte) {
			for i := range *b {
				(*b)[i] = 0
			}
		},
		maxBuffers,
	)
	return bp
}

// Acquire returns a zeroed buffer of BufferPool's configured size.
func (bp *BufferPool) Acquire() ([]byte, bool) { return bp.pool.Acquire() }

// Release returns buf to the pool.
func (bp *BufferPool) Release(buf []byte) { bp.pool.Release(buf) }

// Stats reports conservation counters for the buffer pool.
func (bp *BufferPool) Stats() Stats { return bp.pool.Stats() }
