package corpus

import (
	"fmt"

	"github.com/example/mishnahbot/pkg/models"
)

// hebrewNumerals covers chapter and unit numbers 1-30, which is as high as
// any tractate in the corpus goes.
var hebrewNumerals = []string{"", "א", "ב", "ג", "ד", "ה", "ו", "ז", "ח", "ט", "י",
	"יא", "יב", "יג", "יד", "טו", "טז", "יז", "יח", "יט", "כ",
	"כא", "כב", "כג", "כד", "כה", "כו", "כז", "כח", "כט", "ל"}

// HebrewNumeral renders a 1-based chapter or unit number as Hebrew letters,
// falling back to decimal outside the covered range.
func HebrewNumeral(n int) string {
	if n >= 1 && n < len(hebrewNumerals) {
		return hebrewNumerals[n]
	}
	return fmt.Sprintf("%d", n)
}

// HebrewRef formats an address for display, e.g. "ברכות א:ג".
func (ix *Index) HebrewRef(addr models.Address) string {
	t := ix.tractates[addr.TractateIndex]
	return fmt.Sprintf("%s %s:%s", t.HebrewName,
		HebrewNumeral(addr.ChapterIndex+1), HebrewNumeral(addr.UnitIndex+1))
}
