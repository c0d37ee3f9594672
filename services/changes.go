package services

import (
	"sort"
	"strconv"
	"strings"

	"telecom-scraper/models"
)

// IdentityKey returns the key that matches a record across two snapshots.
//
// The key is provider plus one discriminant per kind and deliberately leaves
// the price out, otherwise a price change would show up as one removal and one
// addition and never as an update:
//
//	fiber: provider|plan name (speed when the plan has no name)
//	tv:    provider|package name
//	mobil: provider|data allowance in GB
//
// Older data files keyed every kind on price as well; those keys are not
// reproduced here.
func IdentityKey(r models.Record) string {
	base := r.Base()
	var discriminant string
	switch rec := r.(type) {
	case *models.FiberPlan:
		discriminant = strings.ToLower(rec.PlanName)
		if discriminant == "" {
			discriminant = strconv.Itoa(rec.SpeedMbit) + "mbit"
		}
	case *models.TvPackage:
		discriminant = strings.ToLower(rec.PackageName)
	case *models.MobilePlan:
		discriminant = strconv.Itoa(rec.DataGB) + "gb"
	}
	return base.Provider + "|" + discriminant
}

// Diff classifies the records of next against prev. Only monthly price and
// promotion are compared for records present in both; a record with both
// changes counts once toward Updated.
func Diff(prev, next *models.Snapshot) models.ChangeSet {
	oldByKey, _ := index(records(prev))
	newByKey, newOrder := index(records(next))

	var cs models.ChangeSet

	for _, key := range newOrder {
		rec := newByKey[key]
		old, ok := oldByKey[key]
		if !ok {
			cs.New++
			cs.Entries = append(cs.Entries, models.RecordChange{
				Type:         models.ChangeNew,
				Key:          key,
				Provider:     rec.Base().Provider,
				NewPrice:     rec.Base().MonthlyPrice,
				NewPromotion: rec.Base().Promotion,
			})
			continue
		}

		o, n := old.Base(), rec.Base()
		priceChanged := o.MonthlyPrice != n.MonthlyPrice
		promoChanged := o.Promotion != n.Promotion
		if !priceChanged && !promoChanged {
			continue
		}
		if priceChanged {
			cs.PriceChanges++
		}
		if promoChanged {
			cs.PromotionChanges++
		}
		cs.Updated++
		cs.Entries = append(cs.Entries, models.RecordChange{
			Type:             models.ChangeUpdated,
			Key:              key,
			Provider:         n.Provider,
			OldPrice:         o.MonthlyPrice,
			NewPrice:         n.MonthlyPrice,
			OldPromotion:     o.Promotion,
			NewPromotion:     n.Promotion,
			PriceChanged:     priceChanged,
			PromotionChanged: promoChanged,
		})
	}

	removed := make([]string, 0)
	for key := range oldByKey {
		if _, ok := newByKey[key]; !ok {
			removed = append(removed, key)
		}
	}
	sort.Strings(removed)
	for _, key := range removed {
		o := oldByKey[key].Base()
		cs.Removed++
		cs.Entries = append(cs.Entries, models.RecordChange{
			Type:         models.ChangeRemoved,
			Key:          key,
			Provider:     o.Provider,
			OldPrice:     o.MonthlyPrice,
			OldPromotion: o.Promotion,
		})
	}

	return cs
}

func records(s *models.Snapshot) []models.Record {
	if s == nil {
		return nil
	}
	return s.Records
}

// index maps identity keys to records. A repeated key keeps the last record
// but its first position in order.
func index(recs []models.Record) (map[string]models.Record, []string) {
	byKey := make(map[string]models.Record, len(recs))
	order := make([]string, 0, len(recs))
	for _, r := range recs {
		if isNilRecord(r) {
			continue
		}
		key := IdentityKey(r)
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = r
	}
	return byKey, order
}
