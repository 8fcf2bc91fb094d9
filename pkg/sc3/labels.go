package sc3

import "slices"

// LabelTable maps jump-target ordinals to absolute positions. Entry 0 is
// also the base offset of the instruction stream.
type LabelTable struct {
	labels []uint32
	set    map[uint32]struct{}
}

// NewLabelTable builds a table over labels. The slice is copied.
func NewLabelTable(labels []uint32) (*LabelTable, error) {
	if len(labels) == 0 {
		return nil, decodeErrorf(ErrResolution, 0, "empty label table")
	}
	t := &LabelTable{
		labels: slices.Clone(labels),
		set:    make(map[uint32]struct{}, len(labels)),
	}
	for _, l := range labels {
		t.set[l] = struct{}{}
	}
	return t, nil
}

// Base returns the absolute position of the first instruction.
func (t *LabelTable) Base() uint32 {
	return t.labels[0]
}

// Len returns the number of labels.
func (t *LabelTable) Len() int {
	return len(t.labels)
}

// Resolve returns the absolute position of label ordinal.
func (t *LabelTable) Resolve(ordinal int) (uint32, error) {
	if ordinal < 0 || ordinal >= len(t.labels) {
		return 0, decodeErrorf(ErrResolution, 0,
			"label ordinal %d is out of range (%d labels)", ordinal, len(t.labels))
	}
	return t.labels[ordinal], nil
}

// IsLabeled reports whether pos is a jump target.
func (t *LabelTable) IsLabeled(pos uint32) bool {
	_, ok := t.set[pos]
	return ok
}
