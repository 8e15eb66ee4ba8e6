package boot

import (
	"errors"
	"fmt"

	"github.com/phuslu/log"

	"github.com/cubed-guy/text-os/kernel/alloc"
	"github.com/cubed-guy/text-os/kernel/heap"
)

// ErrWorkloadFailed indicates a workload read back a value it did not write.
var ErrWorkloadFailed = errors.New("boot: workload check failed")

var wordLayout = alloc.Layout{Size: 8, Align: 8}

// Workload is a named heap exercise.
type Workload struct {
	Name        string
	Description string
	Run         func(h *heap.Heap) (Result, error)
}

// Result summarizes one workload run.
type Result struct {
	Name        string
	Allocations int    // Successful Alloc calls
	PeakBytes   uint64 // Largest number of bytes live at once
}

// Workloads lists the built-in workloads.
var Workloads = []Workload{
	{
		Name:        "simple_allocation",
		Description: "allocate two words, write and read them back",
		Run:         simpleAllocation,
	},
	{
		Name:        "large_vec",
		Description: "grow a vector of 1000 words by doubling, then sum it",
		Run:         largeVec,
	},
	{
		Name:        "many_boxes",
		Description: "allocate and free one word per byte of heap",
		Run:         manyBoxes,
	},
}

// FindWorkload looks up a workload by name.
func FindWorkload(name string) (Workload, bool) {
	for _, w := range Workloads {
		if w.Name == name {
			return w, true
		}
	}
	return Workload{}, false
}

// RunAll runs every workload in order and stops at the first failure.
func RunAll(h *heap.Heap) ([]Result, error) {
	results := make([]Result, 0, len(Workloads))
	for _, w := range Workloads {
		r, err := w.Run(h)
		if err != nil {
			return results, fmt.Errorf("%s: %w", w.Name, err)
		}
		log.Debug().Str("workload", w.Name).Int("allocations", r.Allocations).Msg("workload passed")
		results = append(results, r)
	}
	return results, nil
}

func simpleAllocation(h *heap.Heap) (Result, error) {
	res := Result{Name: "simple_allocation"}
	mem := h.Memory()

	values := []uint64{0xff9088, 56}
	ptrs := make([]alloc.Addr, 0, len(values))
	defer func() {
		for _, p := range ptrs {
			h.Dealloc(p, wordLayout)
		}
	}()

	for _, v := range values {
		p, err := h.Alloc(wordLayout)
		if err != nil {
			return res, err
		}
		ptrs = append(ptrs, p)
		res.Allocations++
		mem.Store64(p, v)
	}
	res.PeakBytes = uint64(len(ptrs)) * wordLayout.Size

	for i, p := range ptrs {
		if got := mem.Load64(p); got != values[i] {
			return res, fmt.Errorf("%w: box %d holds %#x, want %#x", ErrWorkloadFailed, i, got, values[i])
		}
	}
	return res, nil
}

// vecMinCapacity is the first non-zero capacity of a growing word vector.
const vecMinCapacity = 4

func largeVec(h *heap.Heap) (Result, error) {
	const n = 1000
	res := Result{Name: "large_vec"}
	mem := h.Memory()

	var (
		data     alloc.Addr
		capacity uint64
		layout   alloc.Layout
	)
	defer func() {
		if capacity > 0 {
			h.Dealloc(data, layout)
		}
	}()

	for i := range uint64(n) {
		if i == capacity {
			newCap := max(vecMinCapacity, capacity*2)
			newLayout, err := alloc.ArrayLayout(wordLayout.Size, newCap, wordLayout.Align)
			if err != nil {
				return res, err
			}
			newData, err := h.Alloc(newLayout)
			if err != nil {
				return res, err
			}
			res.Allocations++
			res.PeakBytes = max(res.PeakBytes, layout.Size+newLayout.Size)
			for j := range i {
				mem.Store64(newData+alloc.Addr(j*8), mem.Load64(data+alloc.Addr(j*8)))
			}
			if capacity > 0 {
				h.Dealloc(data, layout)
			}
			data, capacity, layout = newData, newCap, newLayout
		}
		mem.Store64(data+alloc.Addr(i*8), i)
	}

	var sum uint64
	for i := range uint64(n) {
		sum += mem.Load64(data + alloc.Addr(i*8))
	}
	if want := uint64(n * (n - 1) / 2); sum != want {
		return res, fmt.Errorf("%w: sum %d, want %d", ErrWorkloadFailed, sum, want)
	}
	return res, nil
}

func manyBoxes(h *heap.Heap) (Result, error) {
	res := Result{Name: "many_boxes", PeakBytes: wordLayout.Size}
	mem := h.Memory()

	for i := uint64(1); i < h.Region().Size; i++ {
		p, err := h.Alloc(wordLayout)
		if err != nil {
			return res, fmt.Errorf("box %d: %w", i, err)
		}
		res.Allocations++
		mem.Store64(p, i)
		got := mem.Load64(p)
		h.Dealloc(p, wordLayout)
		if got != i {
			return res, fmt.Errorf("%w: box %d holds %d", ErrWorkloadFailed, i, got)
		}
	}
	return res, nil
}
