package ncflag

func set(b, bits uint64) uint64   { return b | bits }
func unset(b, bits uint64) uint64 { return b &^ bits }
func has(b, bits uint64) bool     { return b&bits != 0 }

// matches reports whether the bits of b selected by mask equal value.
func matches(b, mask, value uint64) bool { return b&mask == value }

// replace clears the mask bits of b and ORs in value.
func replace(b, mask, value uint64) uint64 { return set(unset(b, mask), value) }
