package reftable

import "sync/atomic"

// Holder publishes the current table to concurrent readers. Replacing the
// table is a single atomic store; readers never see a partially built table.
type Holder struct {
	cur atomic.Pointer[Table]
}

func NewHolder(t *Table) *Holder {
	h := &Holder{}
	if t != nil {
		h.cur.Store(t)
	}
	return h
}

// Current returns the table in use, or nil before the first load.
func (h *Holder) Current() *Table { return h.cur.Load() }

// Swap installs t and returns the previous table. A nil t is ignored.
func (h *Holder) Swap(t *Table) *Table {
	if t == nil {
		return h.cur.Load()
	}
	return h.cur.Swap(t)
}

func (h *Holder) Len() int { return h.Current().Len() }
