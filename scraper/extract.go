package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"telecom-scraper/models"
)

// DefaultSelector matches the plan/package cards most provider sites use.
const DefaultSelector = `[class*="plan"], [class*="package"], [class*="pakke"], [class*="card"], [class*="product"]`

const (
	nameSelector  = `h1, h2, h3, h4, [class*="title"], [class*="name"], [class*="navn"]`
	promoSelector = `[class*="campaign"], [class*="kampagne"], [class*="promo"], [class*="badge"], [class*="offer"]`
)

// The patterns only cut the relevant fragment out of the card text; turning
// it into numbers is left to the normalizers.
var (
	priceTextRegexp    = regexp.MustCompile(`(?i)\d[\d.]*(?:,\d{1,2}|,-)?\s*(?:kr\.?|dkk)`)
	speedTextRegexp    = regexp.MustCompile(`(?i)\d+(?:[.,]\d+)?\s*(?:gbit|mbit|gb|mb)(?:/s)?`)
	contractTextRegexp = regexp.MustCompile(`(?i)\d+\s*(?:måneder|måned|mdr\.?|år)`)
	noBindingRegexp    = regexp.MustCompile(`(?i)ingen\s+binding|uden\s+binding`)
	channelsTextRegexp = regexp.MustCompile(`(?i)\d+\+?\s*(?:tv-)?kanaler`)
	dataTextRegexp     = regexp.MustCompile(`(?i)\d+(?:[.,]\d+)?\s*(?:tb|gb|mb)|ubegrænset|unlimited`)
	roamingTextRegexp  = regexp.MustCompile(`(?i)\beu\b|europa`)
	familyTextRegexp   = regexp.MustCompile(`(?i)[^.!]*familie[^.!]*`)
)

// ExtractCandidates reads offer cards from rendered HTML. Cards without any
// price are skipped; everything else is emitted as raw text for the pipeline
// to normalize.
func ExtractCandidates(kind models.Kind, pageURL, html, selector string) ([]models.RawCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if selector == "" {
		selector = DefaultSelector
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	var out []models.RawCandidate

	doc.Find(selector).Each(func(_ int, card *goquery.Selection) {
		// Wrappers around several cards would blend their prices together.
		if card.Find(selector).Length() > 0 {
			return
		}
		text := collapse(card.Text())
		price := priceTextRegexp.FindString(text)
		if price == "" {
			return
		}

		cand := models.RawCandidate{models.FieldPrice: price}
		if contract := contractText(text); contract != "" {
			cand[models.FieldContract] = contract
		}
		if promo := collapse(card.Find(promoSelector).First().Text()); promo != "" {
			cand[models.FieldPromotion] = promo
		}
		name := collapse(card.Find(nameSelector).First().Text())

		switch kind {
		case models.KindFiber:
			cand[models.FieldSpeed] = speedTextRegexp.FindString(text)
			cand[models.FieldPlanName] = name
			cand[models.FieldDescription] = text
			cand[models.FieldFeatures] = listItems(card)
		case models.KindTV:
			cand[models.FieldPackageName] = name
			cand[models.FieldChannels] = channelsTextRegexp.FindString(text)
			cand[models.FieldCategory] = name + " " + text
			cand[models.FieldCTAURL] = linkURL(base, card)
		case models.KindMobile:
			cand[models.FieldDataGB] = dataTextRegexp.FindString(text)
			cand[models.FieldEURoaming] = roamingTextRegexp.MatchString(text)
			if family := familyTextRegexp.FindString(text); family != "" {
				cand[models.FieldFamilyDiscount] = strings.TrimSpace(family)
			}
			cand[models.FieldCTAURL] = linkURL(base, card)
		}
		out = append(out, cand)
	})

	return out, nil
}

func contractText(text string) string {
	if m := contractTextRegexp.FindString(text); m != "" {
		return m
	}
	if noBindingRegexp.MatchString(text) {
		return "0"
	}
	return ""
}

func listItems(card *goquery.Selection) []string {
	items := make([]string, 0)
	card.Find("li").Each(func(_ int, li *goquery.Selection) {
		if t := collapse(li.Text()); t != "" {
			items = append(items, t)
		}
	})
	return items
}

func linkURL(base *url.URL, card *goquery.Selection) string {
	href, ok := card.Find("a[href]").First().Attr("href")
	if !ok {
		href, ok = card.Attr("href")
	}
	if !ok || href == "" {
		return base.String()
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
