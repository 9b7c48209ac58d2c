package mem

// DefaultIntsPageSize provides a default for Ints.PageSize.
const DefaultIntsPageSize = 256

// Ints implements a sparse, integer-oriented paged memory. Any address that
// has never been stored to reads as 0, no matter how large.
// Pages may not necessarily be the same size, but usually are in practice.
type Ints struct {
	PagedCore
	pages [][]int64
}

// Size returns an address one position higher than the last position in the
// last page allocated so far.
func (m *Ints) Size() uint64 {
	if i := len(m.bases) - 1; i >= 0 {
		return m.bases[i] + uint64(len(m.pages[i]))
	}
	return 0
}

// Load returns a single value from the given address.
// Unallocated pages are left unallocated, resulting in implicit 0 values.
// Returns an error if addr exceeds any Limit.
func (m *Ints) Load(addr uint64) (int64, error) {
	if err := m.checkLimit(addr+1, "load"); err != nil {
		return 0, err
	}
	if len(m.pages) == 0 {
		return 0, nil
	}
	pageID := m.findPage(addr)
	if base := m.bases[pageID]; base <= addr {
		if i := addr - base; i < uint64(len(m.pages[pageID])) {
			return m.pages[pageID][i], nil
		}
	}
	return 0, nil
}

// LoadInto reads len(buf) integers from memory starting at addr.
// Skips any unallocated pages, zeroing the result buffer where encountered.
// Returns an error if Limit would be exceeded; no partial load is done.
func (m *Ints) LoadInto(addr uint64, buf []int64) error {
	if len(buf) == 0 {
		return nil
	}

	end := addr + uint64(len(buf))
	if err := m.checkLimit(end, "load"); err != nil {
		return err
	}

	for i := range buf {
		buf[i] = 0
	}

	for pageID := m.findPage(addr); pageID < len(m.bases); pageID++ {
		base, page := m.bases[pageID], m.pages[pageID]
		if base >= end {
			break
		}
		lo, hi := base, base+uint64(len(page))
		if lo < addr {
			lo = addr
		}
		if hi > end {
			hi = end
		}
		if lo < hi {
			copy(buf[lo-addr:hi-addr], page[lo-base:hi-base])
		}
	}

	return nil
}

// Stor stores any values at addr, allocating pages if necessary.
// Returns an error if Limit would be exceeded; no partial store is done.
func (m *Ints) Stor(addr uint64, values ...int64) error {
	if len(values) == 0 {
		return nil
	}

	end := addr + uint64(len(values))
	if err := m.checkLimit(end, "stor"); err != nil {
		return err
	}

	if m.PageSize == 0 {
		m.PageSize = DefaultIntsPageSize
	}

	for pageID := m.findPage(addr); len(values) > 0; pageID++ {
		base, size, page := m.allocPage(pageID, addr)
		if addr >= base+size {
			continue
		}
		n := copy(page[addr-base:], values)
		values = values[n:]
		addr += uint64(n)
	}

	return nil
}

func (m *Ints) allocPage(pageID int, addr uint64) (base, size uint64, page []int64) {
	base, size, isNew := m.PagedCore.allocPage(pageID, addr)
	if !isNew {
		return base, size, m.pages[pageID]
	}
	page = make([]int64, size)
	m.pages = append(m.pages, nil)
	copy(m.pages[pageID+1:], m.pages[pageID:])
	m.pages[pageID] = page
	return base, size, page
}
