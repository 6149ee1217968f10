package carestatus

// DedupFlags collapses a single dog's special_attention flags to the
// first one encountered. Every other flag type is kept as-is, in
// original relative order: duplicate incompatible/in_heat/pregnant
// flags carry distinct payloads (different incompatible_with sets,
// different descriptions) and are allowed to accumulate.
func DedupFlags(flags []DogFlag) []DogFlag {
	if len(flags) == 0 {
		return flags
	}

	out := make([]DogFlag, 0, len(flags))
	seenSpecial := false
	for _, f := range flags {
		if f.Type == FlagSpecialAttention {
			if seenSpecial {
				continue
			}
			seenSpecial = true
		}
		out = append(out, f)
	}
	return out
}
