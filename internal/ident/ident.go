// Package ident generates collision-resistant string identifiers for
// locally created records (tasks, blockers). IDs combine a millisecond
// timestamp with a random suffix, both base-36, so they sort roughly by
// creation time and stay readable in logs.
package ident

import (
	"math/rand"
	"strconv"
	"sync"
	"time"
)

const suffixLen = 8

var (
	mu  sync.Mutex
	rng = rand.New(rand.NewSource(time.Now().UnixNano()))
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// New returns a fresh identifier.
func New() string {
	buf := make([]byte, 0, 16+suffixLen)
	buf = strconv.AppendInt(buf, time.Now().UnixMilli(), 36)
	buf = append(buf, '-')

	mu.Lock()
	for i := 0; i < suffixLen; i++ {
		buf = append(buf, alphabet[rng.Intn(len(alphabet))])
	}
	mu.Unlock()

	return string(buf)
}

// NewWithPrefix returns a fresh identifier prefixed with kind, e.g.
// "task-" or "blk-".
func NewWithPrefix(kind string) string {
	return kind + "-" + New()
}
