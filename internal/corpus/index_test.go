package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mishnahbot/pkg/models"
)

// twoTractateIndex builds the small corpus used throughout: tractate T1
// with chapters of 3 and 2 units, tractate T2 with a single 4-unit chapter.
func twoTractateIndex() *Index {
	return NewIndex([]models.Tractate{
		{Name: "T1", HebrewName: "א", ChapterUnitCounts: []int{3, 2}},
		{Name: "T2", HebrewName: "ב", ChapterUnitCounts: []int{4}},
	})
}

func TestSmallCorpusTotals(t *testing.T) {
	ix := twoTractateIndex()
	assert.Equal(t, 9, ix.TotalUnits())
	assert.Equal(t, 3, ix.TotalChapters())
}

func TestGlobalIndexForAddress(t *testing.T) {
	ix := twoTractateIndex()

	i, err := ix.GlobalIndexForAddress("T1", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, i)

	i, err = ix.GlobalIndexForAddress("T2", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, i)
}

func TestGlobalIndexForAddressErrors(t *testing.T) {
	ix := twoTractateIndex()

	_, err := ix.GlobalIndexForAddress("Nope", 0, 0)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = ix.GlobalIndexForAddress("T1", 2, 0)
	require.ErrorAs(t, err, &nf)

	_, err = ix.GlobalIndexForAddress("T1", 1, 2)
	require.ErrorAs(t, err, &nf)
}

func TestAddressForGlobalIndexOutOfRange(t *testing.T) {
	ix := twoTractateIndex()
	var oor *OutOfRangeError

	_, _, err := ix.AddressForGlobalIndex(-1)
	require.ErrorAs(t, err, &oor)

	_, _, err = ix.AddressForGlobalIndex(9)
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 9, oor.Total)
}

func TestBoundaryFlags(t *testing.T) {
	ix := twoTractateIndex()

	assert.True(t, ix.IsChapterEnd(2))
	assert.False(t, ix.IsTractateEnd(2))
	assert.True(t, ix.IsChapterEnd(4))
	assert.True(t, ix.IsTractateEnd(4))
	assert.True(t, ix.IsTractateEnd(8))
	assert.False(t, ix.IsChapterEnd(0))
	assert.False(t, ix.IsChapterEnd(9))
}

func TestBijectionSmall(t *testing.T) {
	ix := twoTractateIndex()
	for i := 0; i < ix.TotalUnits(); i++ {
		addr, _, err := ix.AddressForGlobalIndex(i)
		require.NoError(t, err)
		name := ix.Tractates()[addr.TractateIndex].Name
		back, err := ix.GlobalIndexForAddress(name, addr.ChapterIndex, addr.UnitIndex)
		require.NoError(t, err)
		assert.Equal(t, i, back)
	}
}

func TestDefaultIndexTotals(t *testing.T) {
	ix := Default()
	assert.Equal(t, 4506, ix.TotalUnits())
	assert.Equal(t, 526, ix.TotalChapters())
	assert.Len(t, ix.Tractates(), 63)
}

func TestDefaultIndexBijection(t *testing.T) {
	ix := Default()
	for i := 0; i < ix.TotalUnits(); i++ {
		addr, ref, err := ix.AddressForGlobalIndex(i)
		require.NoError(t, err)
		name := ix.Tractates()[addr.TractateIndex].Name
		back, err := ix.GlobalIndexForAddress(name, addr.ChapterIndex, addr.UnitIndex)
		require.NoError(t, err)
		require.Equal(t, i, back, "ref %s", ref)
		if ix.IsTractateEnd(i) {
			require.True(t, ix.IsChapterEnd(i), "tractate end must be chapter end at %d", i)
		}
	}
}

func TestContentRefs(t *testing.T) {
	ix := Default()

	ref, err := ix.ContentRef(0)
	require.NoError(t, err)
	assert.Equal(t, "Mishnah_Berakhot.1.1", ref)

	ref, err = ix.ContentRef(4)
	require.NoError(t, err)
	assert.Equal(t, "Mishnah_Berakhot.1.5", ref)

	ref, err = ix.ContentRef(5)
	require.NoError(t, err)
	assert.Equal(t, "Mishnah_Berakhot.2.1", ref)

	// Berakhot has 57 units; 57 starts Peah.
	ref, err = ix.ContentRef(57)
	require.NoError(t, err)
	assert.Equal(t, "Mishnah_Peah.1.1", ref)
}

func TestParseContentRefRoundTrip(t *testing.T) {
	ix := Default()
	for _, i := range []int{0, 56, 57, 653, 654, ix.TotalUnits() - 1} {
		addr, ref, err := ix.AddressForGlobalIndex(i)
		require.NoError(t, err)
		parsed, err := ix.ParseContentRef(ref)
		require.NoError(t, err)
		assert.Equal(t, addr, parsed)
	}

	_, err := ix.ParseContentRef("Mishnah_Berakhot.99.1")
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = ix.ParseContentRef("garbage")
	assert.ErrorAs(t, err, &nf)
}

func TestExpandChapterCounts(t *testing.T) {
	for _, tc := range []struct{ total, chapters int }{
		{138, 24}, {96, 10}, {82, 4}, {300, 30}, {12, 3},
	} {
		counts := expandChapterCounts(tc.total, tc.chapters)
		require.Len(t, counts, tc.chapters)
		sum := 0
		for _, n := range counts {
			require.Greater(t, n, 0)
			sum += n
		}
		assert.Equal(t, tc.total, sum)
	}
}

func TestHebrewRef(t *testing.T) {
	ix := Default()
	addr, _, err := ix.AddressForGlobalIndex(2)
	require.NoError(t, err)
	assert.Equal(t, "ברכות א:ג", ix.HebrewRef(addr))
	assert.Equal(t, "טו", HebrewNumeral(15))
	assert.Equal(t, "31", HebrewNumeral(31))
}
