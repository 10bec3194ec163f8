package refstore

import "encoding/binary"

// Key encodings shared between the FST builder (refstore/fstbuild) and the
// FST-backed reader below. Keys must sort lexicographically the same as
// their (position, sample/pop) tuple sorts numerically, which fixed-width
// big-endian encoding guarantees (spec §4.3 "fixed-width lexicographic
// encodings").

// GenotypeKey encodes (position, sample-index) into an 8-byte key.
func GenotypeKey(pos, sampleIdx int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint32(b[0:4], uint32(pos))
	binary.BigEndian.PutUint32(b[4:8], uint32(sampleIdx))
	return b
}

// FreqKey encodes (position, pop-id) into a 6-byte key. pop-id is a small
// per-shard dense integer assigned by the population registry stored in the
// shard header (see FSTShard.popIdx).
func FreqKey(pos int, popID uint16) []byte {
	b := make([]byte, 6)
	binary.BigEndian.PutUint32(b[0:4], uint32(pos))
	binary.BigEndian.PutUint16(b[4:6], popID)
	return b
}

// DecodeGenotypeKey reverses GenotypeKey.
func DecodeGenotypeKey(key []byte) (pos, sampleIdx int) {
	return int(binary.BigEndian.Uint32(key[0:4])), int(binary.BigEndian.Uint32(key[4:8]))
}

// DecodeFreqKey reverses FreqKey.
func DecodeFreqKey(key []byte) (pos int, popID uint16) {
	return int(binary.BigEndian.Uint32(key[0:4])), binary.BigEndian.Uint16(key[4:6])
}

// PackGenotype encodes a phased diploid genotype into the 1-byte packed
// representation of spec §4.3: 2 bits per allele (paternal in the high
// bits, maternal next), 4 reserved bits left zeroed.
func PackGenotype(paternal, maternal byte) byte {
	return (alleleCode(paternal) << 6) | (alleleCode(maternal) << 4)
}

// UnpackGenotype reverses PackGenotype.
func UnpackGenotype(b byte) (paternal, maternal byte) {
	return alleleByte((b >> 6) & 0x3), alleleByte((b >> 4) & 0x3)
}

func alleleCode(b byte) byte {
	switch b {
	case 'A':
		return 0
	case 'C':
		return 1
	case 'G':
		return 2
	case 'T':
		return 3
	default:
		return 0
	}
}

func alleleByte(code byte) byte {
	switch code {
	case 0:
		return 'A'
	case 1:
		return 'C'
	case 2:
		return 'G'
	default:
		return 'T'
	}
}

// FreqFixedPointScale is the denominator used to encode an allele frequency
// in [0,1] as a 4-byte big-endian fixed-point integer (spec §4.3).
const FreqFixedPointScale = 1_000_000_000

// PackAF encodes a float32 frequency as its 4-byte big-endian fixed-point
// representation.
func PackAF(af float32) uint32 {
	return uint32(float64(af) * FreqFixedPointScale)
}

// UnpackAF reverses PackAF.
func UnpackAF(fixed uint32) float32 {
	return float32(float64(fixed) / FreqFixedPointScale)
}
