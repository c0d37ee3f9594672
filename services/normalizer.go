package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"telecom-scraper/models"
)

// The normalizers below are total: any input, including garbage, yields the
// zero value instead of an error. The validator decides whether a zero is
// acceptable for the record kind.

var (
	gigabitRegexp  = regexp.MustCompile(`(\d[\d.,]*)\s*(?:gigabit|gbit|gb)`)
	megabitRegexp  = regexp.MustCompile(`(\d[\d.,]*)\s*(?:megabit|mbit|mb)`)
	firstIntRegexp = regexp.MustCompile(`\d+`)
	amountRegexp   = regexp.MustCompile(`\d[\d.,]*`)
	monthRegexp    = regexp.MustCompile(`(\d+)\s*(?:måned|mdr|month)`)
	yearRegexp     = regexp.MustCompile(`(\d+)\s*(?:år|year)`)
	terabyteRegexp = regexp.MustCompile(`(\d[\d.,]*)\s*tb`)
	gigabyteRegexp = regexp.MustCompile(`(\d[\d.,]*)\s*gb`)
	megabyteRegexp = regexp.MustCompile(`(\d[\d.,]*)\s*mb`)
	ratingRegexp   = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

	currencyReplacer = strings.NewReplacer("dkk", "", "kr.", "", "kr", "", ",-", "")
	unlimitedMarkers = []string{"ubegrænset", "unlimited", "fri data", "fri forbrug", "∞"}
)

// fold lower-cases and NFC-normalizes text so decomposed "å" still matches
// the Danish unit markers.
func fold(s string) string {
	return norm.NFC.String(strings.ToLower(s))
}

// NormalizeSpeed converts a speed description to Mbit/s. Gigabit markers are
// tried before megabit markers; a bare number is taken as Mbit/s.
func NormalizeSpeed(text string) int {
	s := fold(text)
	if s == "" {
		return 0
	}
	if m := gigabitRegexp.FindStringSubmatch(s); m != nil {
		return scaledInt(m[1], 1000)
	}
	if m := megabitRegexp.FindStringSubmatch(s); m != nil {
		return scaledInt(m[1], 1)
	}
	return atoi(firstIntRegexp.FindString(s))
}

// NormalizePrice converts a price text to whole DKK. Decimals are truncated,
// never rounded: "199,50" is 199.
func NormalizePrice(text string) int {
	s := currencyReplacer.Replace(fold(text))
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	tok := amountRegexp.FindString(s)
	if tok == "" {
		return 0
	}
	d, err := decimal.NewFromString(canonicalAmount(tok))
	if err != nil || d.IsNegative() {
		return 0
	}
	return clampInt(d.IntPart())
}

// canonicalAmount rewrites a Danish or English formatted amount into the
// plain "1299.50" form. A comma is always a decimal point; a lone dot followed
// by exactly three digits is a thousands separator.
func canonicalAmount(tok string) string {
	tok = strings.TrimRight(tok, ".,")
	lastComma := strings.LastIndex(tok, ",")
	lastDot := strings.LastIndex(tok, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			tok = strings.ReplaceAll(tok, ".", "")
			return strings.Replace(tok, ",", ".", 1)
		}
		return strings.ReplaceAll(tok, ",", "")
	case lastComma >= 0:
		intPart := strings.ReplaceAll(tok[:lastComma], ",", "")
		return intPart + "." + tok[lastComma+1:]
	case lastDot >= 0:
		if strings.Count(tok, ".") > 1 || len(tok)-lastDot-1 == 3 {
			return strings.ReplaceAll(tok, ".", "")
		}
	}
	return tok
}

// NormalizeContractLength converts a binding period to months. "år" counts
// twelve months; text without digits (e.g. "ingen binding") is 0.
func NormalizeContractLength(text string) int {
	s := fold(text)
	if m := monthRegexp.FindStringSubmatch(s); m != nil {
		return atoi(m[1])
	}
	if m := yearRegexp.FindStringSubmatch(s); m != nil {
		return atoi(m[1]) * 12
	}
	return atoi(firstIntRegexp.FindString(s))
}

// NormalizeDataGB converts a data allowance to whole GB. Unlimited plans get
// models.UnlimitedDataGB.
func NormalizeDataGB(text string) int {
	s := fold(text)
	if s == "" {
		return 0
	}
	for _, marker := range unlimitedMarkers {
		if strings.Contains(s, marker) {
			return models.UnlimitedDataGB
		}
	}
	if m := terabyteRegexp.FindStringSubmatch(s); m != nil {
		return scaledInt(m[1], 1000)
	}
	if m := gigabyteRegexp.FindStringSubmatch(s); m != nil {
		return scaledInt(m[1], 1)
	}
	if m := megabyteRegexp.FindStringSubmatch(s); m != nil {
		d, err := decimal.NewFromString(canonicalAmount(m[1]))
		if err != nil || d.IsNegative() {
			return 0
		}
		return clampInt(d.Div(decimal.NewFromInt(1000)).IntPart())
	}
	return atoi(firstIntRegexp.FindString(s))
}

// NormalizeCategory maps free category or package text to a TV category.
// Unrecognized text yields "".
func NormalizeCategory(text string) models.TvCategory {
	s := fold(text)
	hasSport := strings.Contains(s, "sport")
	hasFilm := strings.Contains(s, "film") || strings.Contains(s, "serie")

	switch {
	case s == "":
		return ""
	case strings.Contains(s, "all inclusive") || strings.Contains(s, "total") ||
		strings.Contains(s, "komplet") || strings.Contains(s, "alt i ét"):
		return models.CategoryAllInclusive
	case hasSport && hasFilm:
		return models.CategorySportFilm
	case hasSport:
		return models.CategorySport
	case hasFilm:
		return models.CategoryFilmSerier
	case strings.Contains(s, "basis") || strings.Contains(s, "grund") || strings.Contains(s, "mini"):
		return models.CategoryBasis
	}
	return ""
}

// NormalizeFlag reads yes/no style text.
func NormalizeFlag(text string) bool {
	switch fold(strings.TrimSpace(text)) {
	case "ja", "yes", "true", "1", "x", "inkl", "inkl.", "inkluderet", "included":
		return true
	}
	return false
}

// NormalizeRating parses a 0-5 rating; anything outside the range is 0.
func NormalizeRating(text string) float64 {
	tok := ratingRegexp.FindString(text)
	if tok == "" {
		return 0
	}
	val, err := strconv.ParseFloat(strings.Replace(tok, ",", ".", 1), 64)
	if err != nil || val < 0 || val > 5 {
		return 0
	}
	return val
}

// NormalizeText trims and collapses internal whitespace.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// scaledInt reads tok with the same separator rules as prices, so
// "1.000 Mbit" is a thousand and "2,5 Gbit" is two and a half.
func scaledInt(tok string, factor int64) int {
	d, err := decimal.NewFromString(canonicalAmount(tok))
	if err != nil {
		return 0
	}
	return clampInt(d.Mul(decimal.NewFromInt(factor)).IntPart())
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func clampInt(n int64) int {
	if n < 0 || n > int64(^uint32(0)>>1) {
		return 0
	}
	return int(n)
}

// NormalizeCount returns the first integer in text, e.g. "120+ kanaler" is 120.
func NormalizeCount(text string) int {
	return atoi(firstIntRegexp.FindString(text))
}
