// Stress harness for fixalloc. It drives a process-lifetime allocator
// through grow/shrink cycles from one mmap'd buffer, keeping every live
// block's contents fingerprinted by two independent hash functions so any
// bookkeeping bug that scribbles over live memory is caught on free.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-farm"
	"github.com/dustin/go-humanize"

	"github.com/dgraph-io/fixalloc"
	"github.com/dgraph-io/fixalloc/buffer"
	"github.com/dgraph-io/fixalloc/sim"
)

var (
	capacity = flag.Int("capacity", 1<<30, "backing buffer size in bytes")
	duration = flag.Duration("dur", time.Minute, "how long to run")
	maxAlloc = flag.Uint64("max", 1<<20, "largest single allocation")
)

// node lives inside allocator memory, the same trick the allocator's callers
// use: the bytes come from Allocate and are reinterpreted as a Go struct.
type node struct {
	val  []byte
	h1   uint64
	h2   uint64
	next *node
}

var nodeSize = int(unsafe.Sizeof(node{}))

var fill []byte

func newNode(a *fixalloc.Allocator, sz int) *node {
	b := a.Allocate(nodeSize)
	if b == nil {
		return nil
	}
	n := (*node)(unsafe.Pointer(&b[0]))
	*n = node{}
	n.val = a.Allocate(sz)
	if n.val == nil {
		a.Free(b)
		return nil
	}
	copy(n.val, fill)
	n.h1 = xxhash.Sum64(n.val)
	n.h2 = farm.Fingerprint64(n.val)
	return n
}

func freeNode(a *fixalloc.Allocator, n *node) {
	if got := xxhash.Sum64(n.val); got != n.h1 {
		log.Fatalf("xxhash mismatch on %d-byte block: %x != %x", len(n.val), got, n.h1)
	}
	if got := farm.Fingerprint64(n.val); got != n.h2 {
		log.Fatalf("farm mismatch on %d-byte block: %x != %x", len(n.val), got, n.h2)
	}
	a.Free(n.val)
	buf := unsafe.Slice((*byte)(unsafe.Pointer(n)), nodeSize)
	a.Free(buf)
}

func main() {
	flag.Parse()

	buf, err := buffer.Mmap(*capacity)
	if err != nil {
		log.Fatalf("mmap: %v", err)
	}
	defer func() {
		if err := buffer.Munmap(buf); err != nil {
			log.Fatalf("munmap: %v", err)
		}
	}()
	if !fixalloc.InitGlobal(buf) {
		log.Fatal("allocator already initialized")
	}
	a := fixalloc.Global()

	fill = make([]byte, *maxAlloc)
	rand.Read(fill)

	sizes := sim.NewZipfian(1.25, 4, *maxAlloc)
	lo := a.Capacity() / 4
	hi := a.Capacity() / 4 * 3

	var head *node
	increase := true
	lastReport := time.Now()
	deadline := time.Now().Add(*duration)

	for time.Now().Before(deadline) {
		inUse := a.InUse()
		if inUse > hi {
			increase = false
		} else if inUse < lo {
			increase = true
		}

		if increase || head == nil {
			sz, _ := sizes()
			n := newNode(a, int(sz))
			if n == nil {
				// Exhausted before reaching the high-water mark. Drain instead.
				increase = false
				continue
			}
			n.next = head
			head = n
		} else {
			n := head
			head = n.next
			freeNode(a, n)
		}

		if time.Since(lastReport) > time.Second {
			m := a.Metrics()
			fmt.Printf("In use: %s. Peak: %s. Remaining arena: %s. Increase? %v\n",
				humanize.IBytes(m.BytesInUse()), humanize.IBytes(m.PeakBytesInUse()),
				humanize.IBytes(a.Remaining()), increase)
			lastReport = time.Now()
		}
	}

	for head != nil {
		n := head
		head = n.next
		freeNode(a, n)
	}
	fmt.Println(a.Metrics().String())
	fmt.Println(a.Metrics().SizeHistogram())
}
