// Package corpus maps between the corpus's hierarchical addresses
// (tractate, chapter, unit) and flat global study-order indices. The index
// is built once from the static corpus table and is immutable afterwards,
// so it is safe for unsynchronized concurrent reads.
package corpus

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/example/mishnahbot/pkg/models"
)

// refPrefix is the stable prefix of every content ref; the full format is
// "Mishnah_{Tractate}.{Chapter}.{Unit}" with 1-based chapter and unit. The
// ref is the join key into the content cache and must never change shape.
const refPrefix = "Mishnah_"

// Index precomputes prefix sums over the corpus table so that address
// lookups are binary searches rather than linear walks.
type Index struct {
	tractates []models.Tractate
	// tractateStarts[k] is the global index of the first unit of tractate k.
	tractateStarts []int
	// chapterStarts[k][c] is the tractate-local index of the first unit of
	// chapter c within tractate k.
	chapterStarts [][]int
	byName        map[string]int
	totalUnits    int
	totalChapters int
}

// NewIndex builds an index over the given tractate sequence. The sequence
// order defines global ordering.
func NewIndex(tractates []models.Tractate) *Index {
	ix := &Index{
		tractates:      tractates,
		tractateStarts: make([]int, len(tractates)),
		chapterStarts:  make([][]int, len(tractates)),
		byName:         make(map[string]int, len(tractates)),
	}
	for k, t := range tractates {
		ix.tractateStarts[k] = ix.totalUnits
		ix.byName[t.Name] = k
		starts := make([]int, len(t.ChapterUnitCounts))
		local := 0
		for c, n := range t.ChapterUnitCounts {
			starts[c] = local
			local += n
		}
		ix.chapterStarts[k] = starts
		ix.totalUnits += local
		ix.totalChapters += len(t.ChapterUnitCounts)
	}
	return ix
}

var (
	defaultIndex *Index
	defaultOnce  sync.Once
)

// Default returns the process-wide index over the canonical corpus table.
func Default() *Index {
	defaultOnce.Do(func() {
		defaultIndex = NewIndex(allTractates())
	})
	return defaultIndex
}

// TotalUnits returns the number of units in the whole corpus.
func (ix *Index) TotalUnits() int { return ix.totalUnits }

// TotalChapters returns the number of chapters in the whole corpus.
func (ix *Index) TotalChapters() int { return ix.totalChapters }

// Tractates returns the ordered tractate sequence backing the index.
func (ix *Index) Tractates() []models.Tractate { return ix.tractates }

// AddressForGlobalIndex resolves a global index to its hierarchical address
// and canonical content ref.
func (ix *Index) AddressForGlobalIndex(i int) (models.Address, string, error) {
	if i < 0 || i >= ix.totalUnits {
		return models.Address{}, "", &OutOfRangeError{Index: i, Total: ix.totalUnits}
	}
	k := sort.Search(len(ix.tractateStarts), func(n int) bool {
		return ix.tractateStarts[n] > i
	}) - 1
	local := i - ix.tractateStarts[k]
	starts := ix.chapterStarts[k]
	c := sort.Search(len(starts), func(n int) bool {
		return starts[n] > local
	}) - 1
	addr := models.Address{TractateIndex: k, ChapterIndex: c, UnitIndex: local - starts[c]}
	return addr, ix.refFor(addr), nil
}

// GlobalIndexForAddress is the inverse of AddressForGlobalIndex. The
// tractate is identified by name; chapter and unit indices are 0-based.
func (ix *Index) GlobalIndexForAddress(tractateName string, chapterIndex, unitIndex int) (int, error) {
	k, ok := ix.byName[tractateName]
	if !ok {
		return 0, &NotFoundError{Tractate: tractateName, Chapter: chapterIndex, Unit: unitIndex, Reason: "unknown tractate"}
	}
	t := ix.tractates[k]
	if chapterIndex < 0 || chapterIndex >= len(t.ChapterUnitCounts) {
		return 0, &NotFoundError{Tractate: tractateName, Chapter: chapterIndex, Unit: unitIndex, Reason: "chapter index out of bounds"}
	}
	if unitIndex < 0 || unitIndex >= t.ChapterUnitCounts[chapterIndex] {
		return 0, &NotFoundError{Tractate: tractateName, Chapter: chapterIndex, Unit: unitIndex, Reason: "unit index out of bounds"}
	}
	return ix.tractateStarts[k] + ix.chapterStarts[k][chapterIndex] + unitIndex, nil
}

// IsChapterEnd reports whether the unit at global index i is the last unit
// of its chapter. Out-of-range indices are not chapter ends.
func (ix *Index) IsChapterEnd(i int) bool {
	addr, _, err := ix.AddressForGlobalIndex(i)
	if err != nil {
		return false
	}
	t := ix.tractates[addr.TractateIndex]
	return addr.UnitIndex == t.ChapterUnitCounts[addr.ChapterIndex]-1
}

// IsTractateEnd reports whether the unit at global index i is the last unit
// of its tractate. A tractate end is always a chapter end.
func (ix *Index) IsTractateEnd(i int) bool {
	addr, _, err := ix.AddressForGlobalIndex(i)
	if err != nil {
		return false
	}
	t := ix.tractates[addr.TractateIndex]
	return addr.ChapterIndex == len(t.ChapterUnitCounts)-1 &&
		addr.UnitIndex == t.ChapterUnitCounts[addr.ChapterIndex]-1
}

// TractateAtGlobalIndex returns the tractate containing global index i.
func (ix *Index) TractateAtGlobalIndex(i int) (models.Tractate, error) {
	addr, _, err := ix.AddressForGlobalIndex(i)
	if err != nil {
		return models.Tractate{}, err
	}
	return ix.tractates[addr.TractateIndex], nil
}

// ChapterAtGlobalIndex returns the 1-based chapter number, as used in
// content refs and display strings, for global index i.
func (ix *Index) ChapterAtGlobalIndex(i int) (int, error) {
	addr, _, err := ix.AddressForGlobalIndex(i)
	if err != nil {
		return 0, err
	}
	return addr.ChapterIndex + 1, nil
}

// ContentRef returns the canonical ref string for global index i.
func (ix *Index) ContentRef(i int) (string, error) {
	_, ref, err := ix.AddressForGlobalIndex(i)
	return ref, err
}

// ContentRefsForRange returns refs for global indices [start, end],
// clamped to corpus bounds. Used to decide which content to prefetch.
func (ix *Index) ContentRefsForRange(start, end int) []string {
	if start < 0 {
		start = 0
	}
	if end > ix.totalUnits-1 {
		end = ix.totalUnits - 1
	}
	var refs []string
	for i := start; i <= end; i++ {
		if ref, err := ix.ContentRef(i); err == nil {
			refs = append(refs, ref)
		}
	}
	return refs
}

// ParseContentRef resolves a canonical ref back to its address.
func (ix *Index) ParseContentRef(ref string) (models.Address, error) {
	rest, ok := cutPrefix(ref, refPrefix)
	if !ok {
		return models.Address{}, &NotFoundError{Tractate: ref, Reason: "malformed content ref"}
	}
	parts := strings.Split(rest, ".")
	if len(parts) != 3 {
		return models.Address{}, &NotFoundError{Tractate: ref, Reason: "malformed content ref"}
	}
	chapter, err1 := strconv.Atoi(parts[1])
	unit, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return models.Address{}, &NotFoundError{Tractate: ref, Reason: "malformed content ref"}
	}
	i, err := ix.GlobalIndexForAddress(parts[0], chapter-1, unit-1)
	if err != nil {
		return models.Address{}, err
	}
	addr, _, _ := ix.AddressForGlobalIndex(i)
	return addr, nil
}

func (ix *Index) refFor(addr models.Address) string {
	t := ix.tractates[addr.TractateIndex]
	return fmt.Sprintf("%s%s.%d.%d", refPrefix, t.Name, addr.ChapterIndex+1, addr.UnitIndex+1)
}

// cutPrefix is strings.CutPrefix for the toolchain floor this module keeps.
func cutPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
