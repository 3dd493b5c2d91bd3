package main

import (
	"bufio"
	"io"
	"math"
	"math/bits"
	"strconv"
	"strings"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/osmem/heap"
	"golang.org/x/exp/slices"
)

type opKind int

const (
	opMalloc opKind = iota
	opCalloc
	opRealloc
	opFree
)

var opArgCounts = map[string]int{
	"malloc":  2,
	"calloc":  3,
	"realloc": 3,
	"free":    1,
}

// traceOp is one parsed trace line. count is only used by calloc and newID only by realloc.
type traceOp struct {
	line  int
	kind  opKind
	id    string
	newID string
	count int
	size  int
}

func parseTrace(in io.Reader) ([]traceOp, error) {
	var ops []traceOp

	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		op, err := parseLine(line, strings.Fields(text))
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read trace")
	}

	return ops, nil
}

func parseLine(line int, fields []string) (traceOp, error) {
	verb := fields[0]
	argCount, ok := opArgCounts[verb]
	if !ok {
		return traceOp{}, errors.Newf("line %d: unknown operation %q", line, verb)
	}
	if len(fields)-1 != argCount {
		return traceOp{}, errors.Newf("line %d: %s takes %d argument(s), got %d", line, verb, argCount, len(fields)-1)
	}

	op := traceOp{line: line, id: fields[1]}

	var err error
	switch verb {
	case "malloc":
		op.kind = opMalloc
		op.size, err = parseSize(line, fields[2])
	case "calloc":
		op.kind = opCalloc
		op.count, err = parseSize(line, fields[2])
		if err == nil {
			op.size, err = parseSize(line, fields[3])
		}
	case "realloc":
		op.kind = opRealloc
		op.newID = fields[2]
		op.size, err = parseSize(line, fields[3])
	case "free":
		op.kind = opFree
	}

	return op, err
}

func parseSize(line int, field string) (int, error) {
	size, err := strconv.Atoi(field)
	if err != nil {
		return 0, errors.Wrapf(err, "line %d: invalid size %q", line, field)
	}
	if size < 0 {
		return 0, errors.Newf("line %d: size %d is negative", line, size)
	}
	return size, nil
}

type liveAllocation struct {
	ptr  unsafe.Pointer
	size int
	seed byte
}

// replayer drives an allocator through a trace. Every allocation is filled with a pattern derived
// from the line that created it, and the pattern is checked again before the allocation is freed
// or resized so that overlapping blocks are caught.
type replayer struct {
	allocator *heap.Allocator
	live      *swiss.Map[string, liveAllocation]
	opCount   int
}

func newReplayer(allocator *heap.Allocator) *replayer {
	return &replayer{
		allocator: allocator,
		live:      swiss.NewMap[string, liveAllocation](64),
	}
}

func (r *replayer) run(ops []traceOp) error {
	for _, op := range ops {
		err := r.apply(op)
		if err != nil {
			return err
		}
		r.opCount++
	}

	return nil
}

func (r *replayer) apply(op traceOp) error {
	switch op.kind {
	case opMalloc:
		if r.live.Has(op.id) {
			return errors.Newf("line %d: id %s is already live", op.line, op.id)
		}
		ptr := r.allocator.Allocate(op.size)
		return r.track(op, op.id, ptr, op.size)

	case opCalloc:
		if r.live.Has(op.id) {
			return errors.Newf("line %d: id %s is already live", op.line, op.id)
		}
		ptr := r.allocator.AllocateZeroed(op.count, op.size)
		hi, lo := bits.Mul64(uint64(op.count), uint64(op.size))
		if hi != 0 || lo > math.MaxInt {
			if ptr != nil {
				r.allocator.Release(ptr)
				return errors.AssertionFailedf("line %d: calloc of %d x %d bytes overflows but returned memory", op.line, op.count, op.size)
			}
			return errors.Newf("line %d: calloc of %d x %d bytes overflows", op.line, op.count, op.size)
		}

		size := int(lo)
		if ptr != nil {
			for i, b := range unsafe.Slice((*byte)(ptr), size) {
				if b != 0 {
					return errors.AssertionFailedf("line %d: calloc byte %d is %#x", op.line, i, b)
				}
			}
		}
		return r.track(op, op.id, ptr, size)

	case opRealloc:
		alloc, ok := r.live.Get(op.id)
		if !ok && op.id != "-" {
			return errors.Newf("line %d: unknown id %s", op.line, op.id)
		}
		if op.newID != op.id && r.live.Has(op.newID) {
			return errors.Newf("line %d: id %s is already live", op.line, op.newID)
		}

		if ok {
			err := r.verify(op, op.id, alloc)
			if err != nil {
				return err
			}
			r.live.Delete(op.id)
		}

		ptr := r.allocator.Resize(alloc.ptr, op.size)
		if ptr == nil {
			return nil
		}

		kept := alloc.size
		if op.size < kept {
			kept = op.size
		}
		err := r.verify(op, op.newID, liveAllocation{ptr: ptr, size: kept, seed: alloc.seed})
		if err != nil {
			return err
		}
		return r.track(op, op.newID, ptr, op.size)

	case opFree:
		alloc, ok := r.live.Get(op.id)
		if !ok {
			return errors.Newf("line %d: unknown id %s", op.line, op.id)
		}
		err := r.verify(op, op.id, alloc)
		if err != nil {
			return err
		}
		r.live.Delete(op.id)
		r.allocator.Release(alloc.ptr)
	}

	return nil
}

func (r *replayer) track(op traceOp, id string, ptr unsafe.Pointer, size int) error {
	if ptr == nil {
		if size > 0 {
			return errors.Newf("line %d: allocation of %d bytes returned nil", op.line, size)
		}
		return nil
	}

	seed := byte(op.line)
	data := unsafe.Slice((*byte)(ptr), size)
	for i := range data {
		data[i] = seed + byte(i)
	}

	r.live.Put(id, liveAllocation{ptr: ptr, size: size, seed: seed})
	return nil
}

func (r *replayer) verify(op traceOp, id string, alloc liveAllocation) error {
	data := unsafe.Slice((*byte)(alloc.ptr), alloc.size)
	for i, b := range data {
		if b != alloc.seed+byte(i) {
			return errors.AssertionFailedf("line %d: contents of %s were overwritten at byte %d", op.line, id, i)
		}
	}

	return nil
}

// liveIDs returns the ids that were never freed, sorted
func (r *replayer) liveIDs() []string {
	ids := make([]string, 0, r.live.Count())
	r.live.Iter(func(id string, _ liveAllocation) bool {
		ids = append(ids, id)
		return false
	})

	slices.Sort(ids)
	return ids
}

func (r *replayer) releaseAll() {
	for _, id := range r.liveIDs() {
		alloc, _ := r.live.Get(id)
		r.allocator.Release(alloc.ptr)
		r.live.Delete(id)
	}
}
