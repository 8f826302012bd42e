package trace

import (
	"fmt"

	"github.com/heapkit/heapkit/heap/alloc"
)

// Summary reports what a replay did.
type Summary struct {
	Ops     int // operations executed
	Live    int // handles still live at the end
	MaxLive int // peak concurrent live handles
}

// Runner replays parsed operations against a heap, mapping trace handles to
// block references. An optional Check hook runs after every successful
// operation; a non-nil return aborts the replay.
type Runner struct {
	Heap  alloc.Heap
	Check func(Op) error

	refs map[int]alloc.Ref
}

// Run executes ops in order. Reusing a live handle in an alloc, or touching a
// handle that was never allocated in a realloc or free, is a trace error.
func (rn *Runner) Run(ops []Op) (Summary, error) {
	rn.refs = make(map[int]alloc.Ref)
	var sum Summary
	for _, op := range ops {
		if err := rn.step(op); err != nil {
			return sum, err
		}
		sum.Ops++
		if len(rn.refs) > sum.MaxLive {
			sum.MaxLive = len(rn.refs)
		}
		if rn.Check != nil {
			if err := rn.Check(op); err != nil {
				return sum, fmt.Errorf("trace: line %d: after %s: %w", op.Line, op, err)
			}
		}
	}
	sum.Live = len(rn.refs)
	return sum, nil
}

func (rn *Runner) step(op Op) error {
	switch op.Kind {
	case OpAlloc:
		if _, ok := rn.refs[op.ID]; ok {
			return fmt.Errorf("trace: line %d: handle %d already live", op.Line, op.ID)
		}
		ref, err := rn.Heap.Alloc(op.Size)
		if err != nil {
			return fmt.Errorf("trace: line %d: %s: %w", op.Line, op, err)
		}
		rn.refs[op.ID] = ref
	case OpRealloc:
		ref, ok := rn.refs[op.ID]
		if !ok {
			return fmt.Errorf("trace: line %d: handle %d not live", op.Line, op.ID)
		}
		moved, err := rn.Heap.Realloc(ref, op.Size)
		if err != nil {
			return fmt.Errorf("trace: line %d: %s: %w", op.Line, op, err)
		}
		if op.Size == 0 {
			delete(rn.refs, op.ID)
		} else {
			rn.refs[op.ID] = moved
		}
	case OpFree:
		ref, ok := rn.refs[op.ID]
		if !ok {
			return fmt.Errorf("trace: line %d: handle %d not live", op.Line, op.ID)
		}
		if err := rn.Heap.Free(ref); err != nil {
			return fmt.Errorf("trace: line %d: %s: %w", op.Line, op, err)
		}
		delete(rn.refs, op.ID)
	default:
		return fmt.Errorf("trace: line %d: unknown operation %q", op.Line, byte(op.Kind))
	}
	return nil
}
