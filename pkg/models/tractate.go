package models

// Tractate describes one tractate of the corpus: its position in the
// canonical order is given by its place in the corpus table, its internal
// shape by the per-chapter unit counts.
type Tractate struct {
	Name              string `json:"name"`
	HebrewName        string `json:"hebrew_name"`
	Seder             string `json:"seder"`
	SederHebrew       string `json:"seder_hebrew"`
	ChapterUnitCounts []int  `json:"chapter_unit_counts"`
}

// TotalUnits returns the number of units across all chapters.
func (t Tractate) TotalUnits() int {
	total := 0
	for _, n := range t.ChapterUnitCounts {
		total += n
	}
	return total
}

// TotalChapters returns the number of chapters.
func (t Tractate) TotalChapters() int {
	return len(t.ChapterUnitCounts)
}

// Address identifies a single unit within the corpus hierarchy.
// Chapter and Unit are 0-based; display code converts to 1-based refs.
type Address struct {
	TractateIndex int `json:"tractate_index"`
	ChapterIndex  int `json:"chapter_index"`
	UnitIndex     int `json:"unit_index"`
}
