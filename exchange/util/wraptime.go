package util

// WrapTime is a truncated unix timestamp with intentional mod-2^32
// wraparound. Elapsed-time arithmetic on WrapTime stays correct across a
// rollover; the wrapping behavior is confined to this type so it cannot be
// applied to any other quantity by accident.
type WrapTime uint32

// ToWrapTime truncates unix seconds to the wrapping width.
func ToWrapTime(unixSeconds uint64) WrapTime {
	return WrapTime(uint32(unixSeconds))
}

// Elapsed returns the seconds elapsed from last to t in wrapping arithmetic.
func (t WrapTime) Elapsed(last WrapTime) uint32 {
	return uint32(t - last)
}
