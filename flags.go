package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// intList is a comma separated list of integers, e.g. "0,1,2,3,4".
type intList []int64

func (l *intList) String() string { return joinInts(*l) }
func (l *intList) Get() interface{} { return *l }
func (l *intList) Set(s string) error {
	var vals []int64
	for _, field := range splitList(s) {
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return err
		}
		vals = append(vals, v)
	}
	*l = vals
	return nil
}

// addrList is a comma separated list of memory addresses.
type addrList []uint64

func (l *addrList) String() string {
	parts := make([]string, len(*l))
	for i, addr := range *l {
		parts[i] = strconv.FormatUint(addr, 10)
	}
	return strings.Join(parts, ",")
}
func (l *addrList) Get() interface{} { return *l }
func (l *addrList) Set(s string) error {
	var addrs []uint64
	for _, field := range splitList(s) {
		addr, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return err
		}
		addrs = append(addrs, addr)
	}
	*l = addrs
	return nil
}

// patchList is a comma separated list of addr=value memory writes; it may be
// given more than once.
type patchList []memPatch

type memPatch struct {
	addr  uint64
	value int64
}

func (l *patchList) String() string {
	parts := make([]string, len(*l))
	for i, p := range *l {
		parts[i] = fmt.Sprintf("%d=%d", p.addr, p.value)
	}
	return strings.Join(parts, ",")
}
func (l *patchList) Get() interface{} { return *l }
func (l *patchList) Set(s string) error {
	for _, field := range splitList(s) {
		i := strings.IndexByte(field, '=')
		if i < 0 {
			return errors.Errorf("patch %q is not addr=value", field)
		}
		addr, err := strconv.ParseUint(strings.TrimSpace(field[:i]), 10, 64)
		if err != nil {
			return err
		}
		value, err := strconv.ParseInt(strings.TrimSpace(field[i+1:]), 10, 64)
		if err != nil {
			return err
		}
		*l = append(*l, memPatch{addr, value})
	}
	return nil
}

// rangeFlag is an inclusive "lo:hi" integer range.
type rangeFlag struct{ lo, hi int64 }

func (r *rangeFlag) String() string   { return fmt.Sprintf("%d:%d", r.lo, r.hi) }
func (r *rangeFlag) Get() interface{} { return *r }
func (r *rangeFlag) Set(s string) error {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return errors.Errorf("range %q is not lo:hi", s)
	}
	lo, err := strconv.ParseInt(strings.TrimSpace(s[:i]), 10, 64)
	if err != nil {
		return err
	}
	hi, err := strconv.ParseInt(strings.TrimSpace(s[i+1:]), 10, 64)
	if err != nil {
		return err
	}
	if hi < lo {
		return errors.Errorf("empty range %v", s)
	}
	r.lo, r.hi = lo, hi
	return nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	fields := strings.Split(s, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func joinInts(vals []int64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, ",")
}
