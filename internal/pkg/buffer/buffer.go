package buffer

import (
	"sync"
)

// ReadChunk is the default size of a single socket read.
const ReadChunk = 4096

var rPool = sync.Pool{
	New: func() any {
		b := make([]byte, ReadChunk)
		return &b
	},
}

// GetChunk returns a pooled read buffer of at least size bytes.
func GetChunk(size int) *[]byte {
	bufp := rPool.Get().(*[]byte)
	if cap(*bufp) < size {
		b := make([]byte, size)
		return &b
	}
	*bufp = (*bufp)[:size]
	return bufp
}

func PutChunk(bufp *[]byte) {
	if bufp == nil || cap(*bufp) < ReadChunk {
		return
	}
	rPool.Put(bufp)
}
