package vkg

import (
	"fmt"
	"log/slog"

	"github.com/docker/go-units"
)

// Allocation is a byte range handed out by an allocator.
type Allocation struct {
	Offset uint64
	Size   uint64
}

func (a *Allocation) String() string {
	return fmt.Sprintf("[%d %d]", a.Offset, a.Size)
}

// IAllocator sub-allocates ranges of a single block of device memory.
type IAllocator interface {
	Allocate(size uint64, align uint64) *Allocation
	Free(a *Allocation)
	Reset()
	Used() uint64
	LogDetails(log *slog.Logger)
}

// LinearAllocator keeps its allocations sorted by offset and places a new
// one in the first gap large enough to hold it. Allocate returns nil when
// nothing fits.
type LinearAllocator struct {
	Size   uint64
	allocs []*Allocation
}

func makeAlignUp(a uint64, align uint64) uint64 {
	if align <= 1 {
		return a
	}
	m := a % align
	if m == 0 {
		return a
	}
	return (a - m) + align
}

func (p *LinearAllocator) Free(fa *Allocation) {
	for i, a := range p.allocs {
		if a == fa {
			p.allocs = append(p.allocs[:i], p.allocs[i+1:]...)
			return
		}
	}
}

// Reset drops every allocation at once.
func (p *LinearAllocator) Reset() {
	p.allocs = p.allocs[:0]
}

// Used returns the sum of the live allocation sizes.
func (p *LinearAllocator) Used() uint64 {
	var n uint64
	for _, a := range p.allocs {
		n += a.Size
	}
	return n
}

func (p *LinearAllocator) Allocate(size uint64, align uint64) *Allocation {
	if size == 0 || size > p.Size {
		return nil
	}

	if len(p.allocs) == 0 {
		na := &Allocation{Offset: 0, Size: size}
		p.allocs = append(p.allocs, na)
		return na
	}

	// offset 0 is aligned for any alignment
	if p.allocs[0].Offset >= size {
		na := &Allocation{Offset: 0, Size: size}
		p.allocs = append([]*Allocation{na}, p.allocs...)
		return na
	}

	for i := 0; i+1 < len(p.allocs); i++ {
		c, n := p.allocs[i], p.allocs[i+1]
		l := makeAlignUp(c.Offset+c.Size, align)
		if l <= n.Offset && n.Offset-l >= size {
			na := &Allocation{Offset: l, Size: size}
			p.allocs = append(p.allocs[:i+1], append([]*Allocation{na}, p.allocs[i+1:]...)...)
			return na
		}
	}

	last := p.allocs[len(p.allocs)-1]
	nl := makeAlignUp(last.Offset+last.Size, align)
	if nl <= p.Size && p.Size-nl >= size {
		na := &Allocation{Offset: nl, Size: size}
		p.allocs = append(p.allocs, na)
		return na
	}
	return nil
}

func (p *LinearAllocator) LogDetails(log *slog.Logger) {
	log.Debug("allocator",
		"size", units.BytesSize(float64(p.Size)),
		"used", units.BytesSize(float64(p.Used())),
		"allocations", len(p.allocs))
}

func (p *LinearAllocator) String() string {
	return fmt.Sprintf("%v", p.allocs)
}
