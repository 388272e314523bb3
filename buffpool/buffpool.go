package buffpool

import (
	"bytes"
	"sync"
)

const initBuffSize = 4096

var pool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, initBuffSize))
	},
}

func GetBuff() *bytes.Buffer {
	return pool.Get().(*bytes.Buffer)
}

func PutBuff(buf *bytes.Buffer) {
	buf.Reset()
	pool.Put(buf)
}
