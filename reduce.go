package ncflag

import "github.com/pkg/errors"

// Reduce collapses axis by ORing every element along it and returns an array
// of one fewer dimension bound to the same scheme. A negative axis counts from
// the last one.
//
// When excludeMask is non-zero, a present element with any excludeMask bit set
// contributes nothing to the result, dropping whole slices flagged as
// unreliable rather than only their masked bits. Missing elements contribute
// nothing. A result element is missing only when every element along the axis
// was missing, which holds for every result element of a zero-length axis.
func (a *Array) Reduce(axis int, excludeMask uint64) (*Array, error) {
	rank := len(a.shape)
	k := axis
	if k < 0 {
		k += rank
	}
	if k < 0 || k >= rank {
		return nil, errors.Wrapf(ErrAxisOutOfRange, "axis %d for rank %d", axis, rank)
	}

	outer, inner := 1, 1
	for _, d := range a.shape[:k] {
		outer *= d
	}
	for _, d := range a.shape[k+1:] {
		inner *= d
	}
	n := a.shape[k]

	shape := make([]int, 0, rank-1)
	shape = append(shape, a.shape[:k]...)
	shape = append(shape, a.shape[k+1:]...)

	excludeMask &= a.scheme.dtype.AllOnes()
	data := make([]uint64, outer*inner)
	var present []bool
	if a.present != nil || n == 0 {
		present = make([]bool, len(data))
	}

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			r := o*inner + in
			var acc uint64
			for t := 0; t < n; t++ {
				j := (o*n+t)*inner + in
				if !a.isPresent(j) {
					continue
				}
				if present != nil {
					present[r] = true
				}
				v := a.data[j]
				if excludeMask != 0 && has(v, excludeMask) {
					continue
				}
				acc = set(acc, v)
			}
			data[r] = acc
		}
	}

	out := &Array{scheme: a.scheme, shape: shape, data: data, present: present}
	out.compact()
	return out, nil
}
