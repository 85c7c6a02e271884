package mc

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// Streams hands out deterministic, isolated random streams derived from one
// master seed, one per named replica:
//
//	seed(name) = master XOR fnv1a64(name)
//
// The same name always returns the same *rand.Rand. Streams is NOT safe for
// concurrent use; fetch every stream before fanning out.
type Streams struct {
	master int64
	byName map[string]*rand.Rand
}

func NewStreams(master int64) *Streams {
	return &Streams{master: master, byName: make(map[string]*rand.Rand)}
}

func (p *Streams) Master() int64 { return p.master }

// Seed returns the derived seed for name without creating a stream.
func (p *Streams) Seed(name string) int64 { return p.master ^ fnv1a64(name) }

func (p *Streams) For(name string) *rand.Rand {
	if r, ok := p.byName[name]; ok {
		return r
	}
	r := rand.New(rand.NewSource(p.Seed(name)))
	p.byName[name] = r
	return r
}

// ReplicaName is the stream name used for ensemble member i.
func ReplicaName(i int) string { return fmt.Sprintf("replica_%d", i) }

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
