package common

import (
	"fmt"
	"sort"
	"strings"
)

// MemoryFootprint describes the memory consumption of a table or index
// structure as a named tree: a byte count for the node itself plus any
// number of named children accounting for nested structures (bucket
// arrays, node pools, link arrays, and so on).
type MemoryFootprint struct {
	value    uintptr
	note     string
	children map[string]*MemoryFootprint
}

// NewMemoryFootprint creates a new MemoryFootprint instance for a given
// number of bytes consumed directly by the reporting structure.
func NewMemoryFootprint(value uintptr) *MemoryFootprint {
	return &MemoryFootprint{
		value:    value,
		children: make(map[string]*MemoryFootprint),
	}
}

// AddChild attaches the MemoryFootprint of a named subcomponent. A nil
// child is ignored, which keeps call sites simple when a subcomponent is
// optional (e.g. an index that was not configured).
func (mf *MemoryFootprint) AddChild(name string, child *MemoryFootprint) {
	if child == nil {
		return
	}
	mf.children[name] = child
}

// SetNote attaches a free-form annotation printed alongside this node,
// useful for recording e.g. load factor or tree height at report time.
func (mf *MemoryFootprint) SetNote(note string) {
	mf.note = note
}

// Value provides the amount of bytes consumed by this structure, excluding its subcomponents.
func (mf *MemoryFootprint) Value() uintptr {
	return mf.value
}

// Total provides the amount of bytes consumed by this structure including all its subcomponents.
// Footprints reachable through more than one path are counted only once.
func (mf *MemoryFootprint) Total() uintptr {
	seen := make(map[*MemoryFootprint]bool)
	return mf.total(seen)
}

func (mf *MemoryFootprint) total(seen map[*MemoryFootprint]bool) uintptr {
	if seen[mf] {
		return 0
	}
	seen[mf] = true
	total := mf.value
	for _, child := range mf.children {
		total += child.total(seen)
	}
	return total
}

// String renders the footprint as a tree summary, one line per node, in
// post-order (children before the node that owns them), children sorted
// by name for deterministic output.
func (mf *MemoryFootprint) String() string {
	var sb strings.Builder
	mf.write(&sb, ".")
	return sb.String()
}

func (mf *MemoryFootprint) write(sb *strings.Builder, path string) {
	names := make([]string, 0, len(mf.children))
	for name := range mf.children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mf.children[name].write(sb, path+"/"+name)
	}
	fmt.Fprintf(sb, "%s %s", formatByteCount(mf.Total()), path)
	if mf.note != "" {
		fmt.Fprintf(sb, " (%s)", mf.note)
	}
	sb.WriteRune('\n')
}

func formatByteCount(bytes uintptr) string {
	const unit = 1024
	const prefixes = "KMGTPE"
	if bytes < unit {
		return fmt.Sprintf("%6.1f  B", float64(bytes))
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp+1 < len(prefixes); n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%6.1f %cB", float64(bytes)/float64(div), prefixes[exp])
}
