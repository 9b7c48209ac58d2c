package mem

// Fixed is a fixed-vector memory: every address that exists was part of the
// initial image, and any access past its end is a LimitError.
type Fixed []int64

// Size returns the vector length.
func (m Fixed) Size() uint64 { return uint64(len(m)) }

// Load returns the value at addr.
func (m Fixed) Load(addr uint64) (int64, error) {
	if addr >= uint64(len(m)) {
		return 0, LimitError{addr, "load"}
	}
	return m[addr], nil
}

// LoadInto reads len(buf) values starting at addr.
func (m Fixed) LoadInto(addr uint64, buf []int64) error {
	if end := addr + uint64(len(buf)); end > uint64(len(m)) || end < addr {
		return LimitError{end - 1, "load"}
	}
	copy(buf, m[addr:])
	return nil
}

// Stor stores values at addr; no partial store is done.
func (m Fixed) Stor(addr uint64, values ...int64) error {
	if end := addr + uint64(len(values)); end > uint64(len(m)) || end < addr {
		return LimitError{end - 1, "stor"}
	}
	copy(m[addr:], values)
	return nil
}
