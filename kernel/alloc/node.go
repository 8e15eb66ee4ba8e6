package alloc

import (
	"fmt"

	"github.com/cubed-guy/text-os/internal/format"
)

// Intrusive headers live inside free memory. Every access goes through the
// functions below, which check that the header lies entirely inside the heap
// region and is word aligned before a single word is reinterpreted. A header
// is only ever read or written while the bytes it occupies are owned by the
// allocator (free); live blocks are never touched.

// freeNode is the decoded form of a free-list node (see format.NodeSize).
type freeNode struct {
	addr Addr
	size uint64
	next Addr
}

func (n freeNode) end() Addr { return n.addr + Addr(n.size) }

// readNode decodes the node stored at addr.
func readNode(mem Memory, region Region, addr Addr) freeNode {
	checkHeader(region, addr, format.NodeSize, format.NodeAlign)
	return freeNode{
		addr: addr,
		size: mem.Load64(addr + format.NodeSizeOffset),
		next: Addr(mem.Load64(addr + format.NodeNextOffset)),
	}
}

// writeNode encodes n at n.addr. The whole described region must be inside
// the heap and large enough to hold the node.
func writeNode(mem Memory, region Region, n freeNode) {
	checkHeader(region, n.addr, format.NodeSize, format.NodeAlign)
	assertf(n.size >= format.NodeSize, "free region at %#x is %d bytes, smaller than a node", uint64(n.addr), n.size)
	assertf(region.Contains(n.addr, n.size), "free region %#x+%d escapes heap %v", uint64(n.addr), n.size, region)
	mem.Store64(n.addr+format.NodeSizeOffset, n.size)
	mem.Store64(n.addr+format.NodeNextOffset, uint64(n.next))
}

// setNodeNext rewrites only the next word of the node at addr.
func setNodeNext(mem Memory, region Region, addr, next Addr) {
	checkHeader(region, addr, format.NodeSize, format.NodeAlign)
	mem.Store64(addr+format.NodeNextOffset, uint64(next))
}

// readLink decodes the size-class link stored at addr.
func readLink(mem Memory, region Region, addr Addr) Addr {
	checkHeader(region, addr, format.LinkSize, format.WordSize)
	return Addr(mem.Load64(addr + format.LinkNextOffset))
}

// writeLink stores a size-class link at addr. The block previously belonged
// to a caller with an unrelated type; from here on it is a link word.
func writeLink(mem Memory, region Region, addr, next Addr) {
	checkHeader(region, addr, format.LinkSize, format.WordSize)
	mem.Store64(addr+format.LinkNextOffset, uint64(next))
}

func checkHeader(region Region, addr Addr, size, align uint64) {
	assertf(format.IsAligned(uint64(addr), align), "header at %#x is not %d-byte aligned", uint64(addr), align)
	assertf(region.Contains(addr, size), "header %#x+%d outside heap %v", uint64(addr), size, region)
}

// assertf panics when cond is false. Assertion failures mean the heap's
// bookkeeping or a caller is broken; there is nothing to recover.
func assertf(cond bool, msg string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("alloc: assertion failed: "+msg, args...))
	}
}
