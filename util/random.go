package util

import (
	"math/rand"
	"sync"
	"time"
)

func init() {
	r = rand.New(rand.NewSource(time.Now().UnixNano()))
}

var r *rand.Rand
var rLock sync.Mutex

func RandomSequence() uint32 {
	rLock.Lock()
	defer rLock.Unlock()
	return uint32(r.Int31n(1024))
}
