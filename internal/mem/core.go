package mem

import "fmt"

// PagedCore provides functionality common to any paged memory model.
type PagedCore struct {
	// PageSize specifies the length for newly allocated pages.
	PageSize uint64

	// Limit, if non-zero, is the number of addressable cells; any load or
	// store at or past it results in a LimitError.
	Limit uint64

	bases []uint64
	sizes []uint64
}

// LimitError indicates that a memory operation, like load or store, exceeded a limit.
type LimitError struct {
	Addr uint64
	Op   string
}

func (lim LimitError) Error() string {
	return fmt.Sprintf("memory limit exceeded by %v @%v", lim.Op, lim.Addr)
}

// findPage returns the index of the last page whose base is at or below
// addr, or 0 if there is no such page.
func (m *PagedCore) findPage(addr uint64) int {
	i, j := 0, len(m.bases)
	for i < j {
		h := int(uint(i+j)>>1) + 1
		if h < len(m.bases) && m.bases[h] <= addr {
			i = h
		} else {
			j = h - 1
		}
	}
	return i
}

// allocPage returns the page at pageID if it starts at or below addr,
// otherwise it inserts a new page at pageID that covers addr. New pages are
// aligned to PageSize, but clipped so as to never overlap a neighbor.
func (m *PagedCore) allocPage(pageID int, addr uint64) (base, size uint64, isNew bool) {
	if pageID < len(m.bases) && m.bases[pageID] <= addr {
		return m.bases[pageID], m.sizes[pageID], false
	}

	base = addr / m.PageSize * m.PageSize
	end := base + m.PageSize
	if i := pageID - 1; i >= 0 {
		if lastEnd := m.bases[i] + m.sizes[i]; base < lastEnd {
			base = lastEnd
		}
	}
	if pageID < len(m.bases) {
		if nextBase := m.bases[pageID]; end > nextBase {
			end = nextBase
		}
	}
	size = end - base

	m.bases = append(m.bases, 0)
	m.sizes = append(m.sizes, 0)
	copy(m.bases[pageID+1:], m.bases[pageID:])
	copy(m.sizes[pageID+1:], m.sizes[pageID:])
	m.bases[pageID] = base
	m.sizes[pageID] = size
	return base, size, true
}

func (m *PagedCore) checkLimit(end uint64, op string) error {
	if limit := m.Limit; limit != 0 && end > limit {
		return LimitError{end - 1, op}
	}
	return nil
}
