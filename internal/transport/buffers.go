package transport

import "sync"

// readBufferSize is the size of each pooled read buffer (32KB).
const readBufferSize = 32 * 1024

var readBufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, readBufferSize)
		return &buf
	},
}

func getReadBuffer() *[]byte {
	return readBufferPool.Get().(*[]byte)
}

func putReadBuffer(buf *[]byte) {
	readBufferPool.Put(buf)
}
