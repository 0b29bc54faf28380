package exec

import (
	"bytes"
	"sync"
)

// Buffers that grew past maxBufferCap are dropped instead of pooled.
const maxBufferCap = 64 * 1024

var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxBufferCap {
		return
	}
	bufferPool.Put(buf)
}

// copyBuffer detaches the content of buf from the pooled storage.
func copyBuffer(buf *bytes.Buffer) []byte {
	if buf.Len() == 0 {
		return nil
	}
	return append([]byte(nil), buf.Bytes()...)
}
