package osal

// remapPriority implements spec.md §4.2.1's order-reversing, compressive
// mapping from an OSAL priority (0 = highest, 255 = lowest) onto a host
// priority range [pmin, pmax], reproducing
// original_source/src/os/posix/osapi.c's OS_PriorityRemap arithmetic
// exactly, including its two independent negative-endpoint shifts.
func remapPriority(inputPriority uint32, pmin, pmax int) int {
	if inputPriority > MaxPriority {
		inputPriority = MaxPriority
	}

	var minNegOffset, maxNegOffset int
	if pmin < 0 {
		minNegOffset = -pmin
		pmin += minNegOffset
		pmax += minNegOffset
	}
	if pmax < 0 {
		maxNegOffset = -pmax
		pmin += maxNegOffset
		pmax += maxNegOffset
	}

	prange := pmax - pmin + 1
	if prange < 0 {
		prange = -prange
	}
	if prange == 0 {
		prange = 1
	}

	numbins := int(MaxPriority) / prange
	if int(MaxPriority)%prange > prange/2 {
		numbins++
	}
	if numbins < 1 {
		numbins = 1
	}

	inputRev := int(MaxPriority) - int(inputPriority)
	offset := inputRev / numbins
	output := pmin + offset

	if output > pmax {
		output = pmax
	}
	if output < pmin {
		output = pmin
	}

	if minNegOffset != 0 {
		output -= minNegOffset
	}
	if maxNegOffset != 0 {
		output -= maxNegOffset
	}

	return output
}
