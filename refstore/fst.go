package refstore

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/blevesearch/vellum"
	"github.com/carbocation/pfx"
	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/kinerr"
)

// ShardHeader lists the sample order and population tags baked into one
// chromosome's FST shard (spec §3 FSTShard "header listing sample order and
// population tags"). It is serialized as plain JSON next to the two FST
// files; no binary framing is needed since it's read once at Open.
type ShardHeader struct {
	Chr        int      `json:"chr"`
	Samples    []string `json:"samples"`    // index == sample-index used in GenotypeKey
	Population []string `json:"population"` // index == pop-id used in FreqKey
}

func headerPath(fstPath string) string { return fstPath + ".header.json" }

// WriteShardHeader persists the sample-order/population header for a shard
// built at fstPath (the <prefix>.fst genotype FST path). Called by
// refstore/fstbuild once a shard's FST files are finalized.
func WriteShardHeader(fstPath string, h ShardHeader) error {
	f, err := os.Create(headerPath(fstPath))
	if err != nil {
		return pfx.Err(&kinerr.IoError{Op: "create", Path: headerPath(fstPath), Err: err})
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(h)
}

func readHeader(fstPath string) (ShardHeader, error) {
	var h ShardHeader
	f, err := os.Open(headerPath(fstPath))
	if err != nil {
		return h, pfx.Err(&kinerr.IoError{Op: "open", Path: headerPath(fstPath), Err: err})
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&h); err != nil {
		return h, pfx.Err(err)
	}
	return h, nil
}

// FSTShard is the memory-mapped, random-access reference genotype store for
// one chromosome, built offline by refstore/fstbuild (spec §4.3
// "FST-backed").
type FSTShard struct {
	header     ShardHeader
	genotypes  *vellum.FST
	freqs      *vellum.FST
	sampleIdx  map[string]int
	popIdx     map[string]uint16
}

// OpenFSTShard memory-maps the <prefix>.fst genotype transducer and the
// <prefix>.fst.frq frequency transducer, plus their shared JSON header.
func OpenFSTShard(genoPath string) (*FSTShard, error) {
	header, err := readHeader(genoPath)
	if err != nil {
		return nil, err
	}

	genoFST, err := vellum.Open(genoPath)
	if err != nil {
		return nil, pfx.Err(&kinerr.IoError{Op: "open", Path: genoPath, Err: err})
	}

	freqFST, err := vellum.Open(genoPath + ".frq")
	if err != nil {
		genoFST.Close()
		return nil, pfx.Err(&kinerr.IoError{Op: "open", Path: genoPath + ".frq", Err: err})
	}

	sampleIdx := make(map[string]int, len(header.Samples))
	for i, s := range header.Samples {
		sampleIdx[s] = i
	}
	popIdx := make(map[string]uint16, len(header.Population))
	for i, p := range header.Population {
		popIdx[p] = uint16(i)
	}

	return &FSTShard{
		header:    header,
		genotypes: genoFST,
		freqs:     freqFST,
		sampleIdx: sampleIdx,
		popIdx:    popIdx,
	}, nil
}

func (s *FSTShard) LookupGenotype(chr, pos, sampleIdx int) (genome.Genotype, bool, error) {
	if chr != s.header.Chr {
		return genome.Genotype{}, false, nil
	}
	val, exists, err := s.genotypes.Get(GenotypeKey(pos, sampleIdx))
	if err != nil {
		return genome.Genotype{}, false, pfx.Err(err)
	}
	if !exists {
		return genome.Genotype{}, false, nil
	}
	pat, mat := UnpackGenotype(byte(val))
	return genome.Genotype{Paternal: genome.Allele(pat), Maternal: genome.Allele(mat)}, true, nil
}

func (s *FSTShard) LookupAF(chr, pos int, pop string) (float32, bool, error) {
	if chr != s.header.Chr {
		return 0, false, nil
	}
	popID, ok := s.popIdx[pop]
	if !ok {
		return 0, false, nil
	}
	val, exists, err := s.freqs.Get(FreqKey(pos, popID))
	if err != nil {
		return 0, false, pfx.Err(err)
	}
	if !exists {
		return 0, false, nil
	}
	return UnpackAF(uint32(val)), true, nil
}

// IterPositions walks the genotype FST's keyspace and returns the sorted,
// de-duplicated set of positions present for chr.
func (s *FSTShard) IterPositions(chr int) ([]int, error) {
	if chr != s.header.Chr {
		return nil, nil
	}
	itr, err := s.genotypes.Iterator(nil, nil)
	seen := make(map[int]struct{})
	var positions []int
	for err == nil {
		key, _ := itr.Current()
		pos, _ := DecodeGenotypeKey(key)
		if _, dup := seen[pos]; !dup {
			seen[pos] = struct{}{}
			positions = append(positions, pos)
		}
		err = itr.Next()
	}
	if err != nil && err != vellum.ErrIteratorDone {
		return nil, pfx.Err(err)
	}
	sort.Ints(positions)
	return positions, nil
}

// SampleIndex returns the shard-local index assigned to a reference sample
// id at build time, or false if the sample wasn't part of this shard.
func (s *FSTShard) SampleIndex(sampleID string) (int, bool) {
	idx, ok := s.sampleIdx[sampleID]
	return idx, ok
}

func (s *FSTShard) Close() error {
	err1 := s.genotypes.Close()
	err2 := s.freqs.Close()
	if err1 != nil {
		return pfx.Err(err1)
	}
	if err2 != nil {
		return pfx.Err(err2)
	}
	return nil
}

// MultiShardStore dispatches to one FSTShard per chromosome, all opened
// lazily and memory-mapped, so many pairs/replicates share the same pages
// without copy (spec §3 FSTShard ownership, spec §5 "page cache is naturally
// shared").
type MultiShardStore struct {
	dir    string
	shards map[int]*FSTShard
	open   func(chr int) (*FSTShard, error)
}

// NewMultiShardStore builds a lazy, per-chromosome FSTShard store. pathFor
// maps a chromosome id to its <prefix>.fst path.
func NewMultiShardStore(pathFor func(chr int) string) *MultiShardStore {
	m := &MultiShardStore{shards: make(map[int]*FSTShard)}
	m.open = func(chr int) (*FSTShard, error) {
		return OpenFSTShard(pathFor(chr))
	}
	return m
}

func (m *MultiShardStore) shard(chr int) (*FSTShard, error) {
	if s, ok := m.shards[chr]; ok {
		return s, nil
	}
	s, err := m.open(chr)
	if err != nil {
		return nil, err
	}
	m.shards[chr] = s
	return s, nil
}

func (m *MultiShardStore) LookupGenotype(chr, pos, sampleIdx int) (genome.Genotype, bool, error) {
	s, err := m.shard(chr)
	if err != nil {
		return genome.Genotype{}, false, err
	}
	return s.LookupGenotype(chr, pos, sampleIdx)
}

func (m *MultiShardStore) LookupAF(chr, pos int, pop string) (float32, bool, error) {
	s, err := m.shard(chr)
	if err != nil {
		return 0, false, err
	}
	return s.LookupAF(chr, pos, pop)
}

func (m *MultiShardStore) IterPositions(chr int) ([]int, error) {
	s, err := m.shard(chr)
	if err != nil {
		return nil, err
	}
	return s.IterPositions(chr)
}

func (m *MultiShardStore) Close() error {
	var first error
	for _, s := range m.shards {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
