// Package trace parses and replays allocator workload traces. A trace is a
// line-oriented text format, one operation per line:
//
//	a <id> <size>   allocate <size> bytes under handle <id>
//	r <id> <size>   reallocate handle <id> to <size> bytes
//	f <id>          free handle <id>
//
// Blank lines and lines starting with '#' are ignored. Handles are small
// non-negative integers chosen by the trace author; the runner maps them to
// live block references.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Kind discriminates trace operations.
type Kind byte

const (
	OpAlloc   Kind = 'a'
	OpRealloc Kind = 'r'
	OpFree    Kind = 'f'
)

// Op is one parsed trace operation.
type Op struct {
	Kind Kind
	ID   int
	Size int // unused for OpFree
	Line int // 1-based source line, for diagnostics
}

func (op Op) String() string {
	if op.Kind == OpFree {
		return fmt.Sprintf("f %d", op.ID)
	}
	return fmt.Sprintf("%c %d %d", op.Kind, op.ID, op.Size)
}

// Parse reads a trace from r.
func Parse(r io.Reader) ([]Op, error) {
	scanner := bufio.NewScanner(r)
	var ops []Op
	line := 0
	for scanner.Scan() {
		line++
		trim := strings.TrimSpace(scanner.Text())
		if trim == "" || strings.HasPrefix(trim, "#") {
			continue
		}
		op, err := parseLine(trim, line)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ops, nil
}

// ParseFile reads a trace from the file at path. enc names the input
// encoding; empty means UTF-8 with BOM detection. "utf-16le" and
// "windows-1252" are also accepted.
func ParseFile(path, enc string) ([]Op, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := decodeInput(f, enc)
	if err != nil {
		return nil, err
	}
	ops, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ops, nil
}

func parseLine(s string, line int) (Op, error) {
	fields := strings.Fields(s)
	if len(fields[0]) != 1 {
		return Op{}, fmt.Errorf("trace: line %d: unknown operation %q", line, fields[0])
	}
	switch kind := Kind(fields[0][0]); kind {
	case OpAlloc, OpRealloc:
		if len(fields) != 3 {
			return Op{}, fmt.Errorf("trace: line %d: %q takes an id and a size", line, kind)
		}
		id, err := parseField(fields[1], "id", line)
		if err != nil {
			return Op{}, err
		}
		size, err := parseField(fields[2], "size", line)
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: kind, ID: id, Size: size, Line: line}, nil
	case OpFree:
		if len(fields) != 2 {
			return Op{}, fmt.Errorf("trace: line %d: %q takes an id", line, kind)
		}
		id, err := parseField(fields[1], "id", line)
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: kind, ID: id, Line: line}, nil
	default:
		return Op{}, fmt.Errorf("trace: line %d: unknown operation %q", line, fields[0])
	}
}

func parseField(s, name string, line int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("trace: line %d: bad %s %q", line, name, s)
	}
	return n, nil
}
