package http

import (
	"sync"
)

// Read buffers are pooled by size class. Requests must fit in one buffer, so
// the configured read size is usually small; larger classes exist for servers
// configured with a bigger read_buffer_size.
const (
	smallBufferSize  = 1 << 10  // 1KB, the default read size
	mediumBufferSize = 8 << 10  // 8KB
	largeBufferSize  = 64 << 10 // 64KB
)

type bufferPool struct {
	small  sync.Pool
	medium sync.Pool
	large  sync.Pool
}

var globalBufferPool = &bufferPool{
	small:  sync.Pool{New: func() any { buf := make([]byte, smallBufferSize); return &buf }},
	medium: sync.Pool{New: func() any { buf := make([]byte, mediumBufferSize); return &buf }},
	large:  sync.Pool{New: func() any { buf := make([]byte, largeBufferSize); return &buf }},
}

func (p *bufferPool) get(size int) []byte {
	var bufPtr *[]byte

	switch {
	case size <= smallBufferSize:
		bufPtr = p.small.Get().(*[]byte)
	case size <= mediumBufferSize:
		bufPtr = p.medium.Get().(*[]byte)
	case size <= largeBufferSize:
		bufPtr = p.large.Get().(*[]byte)
	default:
		// Oversized buffers are not pooled.
		return make([]byte, size)
	}

	buf := *bufPtr
	return buf[:size]
}

func (p *bufferPool) put(buf []byte) {
	if buf == nil {
		return
	}

	full := buf[:cap(buf)]
	switch cap(buf) {
	case smallBufferSize:
		p.small.Put(&full)
	case mediumBufferSize:
		p.medium.Put(&full)
	case largeBufferSize:
		p.large.Put(&full)
	}
}

// GetBuffer returns a buffer of exactly size bytes. Pair with PutBuffer.
//
//	buf := GetBuffer(size)
//	defer PutBuffer(buf)
func GetBuffer(size int) []byte {
	return globalBufferPool.get(size)
}

// PutBuffer returns a buffer obtained from GetBuffer. The buffer must not be
// used afterwards.
func PutBuffer(buf []byte) {
	globalBufferPool.put(buf)
}
