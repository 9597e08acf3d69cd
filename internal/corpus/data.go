package corpus

import (
	"math"

	"github.com/example/mishnahbot/pkg/models"
)

// tractateDef is a raw table entry. Counts holds the exact per-chapter unit
// counts where known; a nil Counts means the counts are derived from Total
// and Chapters by the float-average partition (see expandChapterCounts).
type tractateDef struct {
	name     string
	hebrew   string
	chapters int
	total    int
	counts   []int
}

type sederDef struct {
	name      string
	hebrew    string
	tractates []tractateDef
}

// mishnahStructure is the canonical corpus table. The ordering of sedarim
// and tractates defines the global reading order.
var mishnahStructure = []sederDef{
	{
		name: "Zeraim", hebrew: "זרעים",
		tractates: []tractateDef{
			{"Berakhot", "ברכות", 9, 57, []int{5, 8, 6, 7, 5, 8, 5, 8, 5}},
			{"Peah", "פאה", 8, 69, []int{6, 8, 8, 11, 8, 11, 8, 9}},
			{"Demai", "דמאי", 7, 53, []int{4, 5, 6, 7, 11, 12, 8}},
			{"Kilayim", "כלאים", 9, 76, []int{9, 11, 7, 9, 8, 9, 8, 6, 9}},
			{"Sheviit", "שביעית", 10, 89, []int{8, 10, 10, 10, 9, 6, 7, 11, 9, 9}},
			{"Terumot", "תרומות", 11, 109, nil},
			{"Maasrot", "מעשרות", 5, 44, nil},
			{"Maaser_Sheni", "מעשר שני", 5, 51, nil},
			{"Challah", "חלה", 4, 38, []int{9, 8, 10, 11}},
			{"Orlah", "ערלה", 3, 42, nil},
			{"Bikkurim", "ביכורים", 4, 26, nil},
		},
	},
	{
		name: "Moed", hebrew: "מועד",
		tractates: []tractateDef{
			{"Shabbat", "שבת", 24, 138, nil},
			{"Eruvin", "עירובין", 10, 96, nil},
			{"Pesachim", "פסחים", 10, 89, nil},
			{"Shekalim", "שקלים", 8, 52, nil},
			{"Yoma", "יומא", 8, 61, nil},
			{"Sukkah", "סוכה", 5, 56, nil},
			{"Beitzah", "ביצה", 5, 42, nil},
			{"Rosh_Hashanah", "ראש השנה", 4, 35, nil},
			{"Taanit", "תענית", 4, 34, nil},
			{"Megillah", "מגילה", 4, 35, nil},
			{"Moed_Katan", "מועד קטן", 3, 29, nil},
			{"Chagigah", "חגיגה", 3, 27, nil},
		},
	},
	{
		name: "Nashim", hebrew: "נשים",
		tractates: []tractateDef{
			{"Yevamot", "יבמות", 16, 122, nil},
			{"Ketubot", "כתובות", 13, 111, nil},
			{"Nedarim", "נדרים", 11, 91, nil},
			{"Nazir", "נזיר", 9, 66, nil},
			{"Sotah", "סוטה", 9, 49, nil},
			{"Gittin", "גיטין", 9, 90, nil},
			{"Kiddushin", "קידושין", 4, 82, nil},
		},
	},
	{
		name: "Nezikin", hebrew: "נזיקין",
		tractates: []tractateDef{
			{"Bava_Kamma", "בבא קמא", 10, 119, nil},
			{"Bava_Metzia", "בבא מציעא", 10, 118, nil},
			{"Bava_Batra", "בבא בתרא", 10, 176, nil},
			{"Sanhedrin", "סנהדרין", 11, 71, nil},
			{"Makkot", "מכות", 3, 24, nil},
			{"Shevuot", "שבועות", 8, 49, nil},
			{"Eduyot", "עדויות", 8, 96, nil},
			{"Avodah_Zarah", "עבודה זרה", 5, 76, nil},
			{"Avot", "אבות", 6, 108, nil},
			{"Horayot", "הוריות", 3, 14, nil},
		},
	},
	{
		name: "Kodashim", hebrew: "קדשים",
		tractates: []tractateDef{
			{"Zevachim", "זבחים", 14, 120, nil},
			{"Menachot", "מנחות", 13, 110, nil},
			{"Chullin", "חולין", 12, 142, nil},
			{"Bekhorot", "בכורות", 9, 61, nil},
			{"Arakhin", "ערכין", 9, 34, nil},
			{"Temurah", "תמורה", 7, 34, nil},
			{"Keritot", "כריתות", 6, 28, nil},
			{"Meilah", "מעילה", 6, 22, nil},
			{"Tamid", "תמיד", 7, 31, nil},
			{"Middot", "מידות", 5, 30, nil},
			{"Kinnim", "קינים", 3, 12, nil},
		},
	},
	{
		name: "Tohorot", hebrew: "טהרות",
		tractates: []tractateDef{
			{"Kelim", "כלים", 30, 300, nil},
			{"Oholot", "אהלות", 18, 181, nil},
			{"Negaim", "נגעים", 14, 126, nil},
			{"Parah", "פרה", 12, 72, nil},
			{"Tohorot", "טהרות", 10, 100, nil},
			{"Mikvaot", "מקואות", 10, 60, nil},
			{"Niddah", "נדה", 10, 79, nil},
			{"Machshirin", "מכשירין", 6, 60, nil},
			{"Zavim", "זבים", 5, 40, nil},
			{"Tevul_Yom", "טבול יום", 4, 20, nil},
			{"Yadayim", "ידים", 4, 22, nil},
			{"Uktzin", "עוקצין", 3, 12, nil},
		},
	},
}

// expandChapterCounts partitions total units over chapters using the
// float-average boundary floor(c*avg). Interior chapters follow the average
// boundaries exactly; the last chapter absorbs the remainder. The same
// boundaries must be used everywhere or content refs drift between caches.
func expandChapterCounts(total, chapters int) []int {
	counts := make([]int, chapters)
	avg := float64(total) / float64(chapters)
	prev := 0
	for c := 1; c < chapters; c++ {
		bound := int(math.Floor(float64(c) * avg))
		counts[c-1] = bound - prev
		prev = bound
	}
	counts[chapters-1] = total - prev
	return counts
}

// ExpandChapterCounts exposes the fallback partition for loaders that only
// know a tractate's total unit and chapter counts.
func ExpandChapterCounts(total, chapters int) []int {
	return expandChapterCounts(total, chapters)
}

// allTractates flattens the corpus table into reading order, expanding
// fallback chapter counts so every tractate carries exact counts.
func allTractates() []models.Tractate {
	var out []models.Tractate
	for _, seder := range mishnahStructure {
		for _, ts := range seder.tractates {
			counts := ts.counts
			if counts == nil {
				counts = expandChapterCounts(ts.total, ts.chapters)
			}
			out = append(out, models.Tractate{
				Name:              ts.name,
				HebrewName:        ts.hebrew,
				Seder:             seder.name,
				SederHebrew:       seder.hebrew,
				ChapterUnitCounts: counts,
			})
		}
	}
	return out
}
