package core

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// GeneDigits is the number of decimal digits a gene code carries.
const GeneDigits = 16

// MixGenes derives a child's genes from its parents. Each of the GeneDigits
// decimal digits is copied from one parent, chosen by a bit of an xxhash
// seed over both gene codes and the child id, so the result is deterministic
// and every digit traces back to a parent.
func MixGenes(a, b uint64, child AssetID) uint64 {
	var buf [24]byte
	binary.BigEndian.PutUint64(buf[0:8], a)
	binary.BigEndian.PutUint64(buf[8:16], b)
	binary.BigEndian.PutUint64(buf[16:24], uint64(child))
	seed := xxhash.Sum64(buf[:])

	var out uint64
	pow := uint64(1)
	for i := 0; i < GeneDigits; i++ {
		digit := (a / pow) % 10
		if seed>>i&1 == 1 {
			digit = (b / pow) % 10
		}
		out += digit * pow
		pow *= 10
	}
	return out
}
