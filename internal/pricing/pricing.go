// Package pricing derives the monetary quote for a draft from the catalog
// item's price and tax treatment. Quote is a pure function of its inputs and
// is recomputed on every render; it must never be cached against stale state.
package pricing

import "github.com/Pleeriyenterprise/intake/model"

// FastTrackField is the reserved answer key whose affirmative boolean value
// applies the item's fast-track surcharge.
const FastTrackField = "fast_track"

// Quote computes subtotal, fees, and tax for the current draft, all in minor
// currency units. Tax is rounded half-up on the fee-inclusive subtotal; with
// no fees selected this reduces to round(base × rate).
func Quote(item model.ItemDefinition, d model.Draft, defaultCurrency string, defaultTaxRatePercent int) model.PriceDescriptor {
	currency := item.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	rate := item.TaxRatePercent
	if rate == 0 {
		rate = defaultTaxRatePercent
	}

	fastTrack := fastTrackFee(item, d)
	addOns := addOnFees(item, d)

	subtotal := item.BasePrice + fastTrack + addOns
	tax := roundPercent(subtotal, rate)

	return model.PriceDescriptor{
		Base:      item.BasePrice,
		FastTrack: fastTrack,
		AddOns:    addOns,
		Tax:       tax,
		Total:     subtotal + tax,
		Currency:  currency,
	}
}

// fastTrackFee returns the item's fast-track surcharge when the draft opts in.
func fastTrackFee(item model.ItemDefinition, d model.Draft) int64 {
	if item.FastTrackSurcharge <= 0 {
		return 0
	}
	v, ok := d.Answers[FastTrackField]
	if !ok {
		return 0
	}
	if b, ok := v.(bool); ok && b {
		return item.FastTrackSurcharge
	}
	return 0
}

// addOnFees sums the surcharges of selected choice options.
func addOnFees(item model.ItemDefinition, d model.Draft) int64 {
	var total int64
	for _, fd := range item.Fields {
		answer, ok := d.Answers[fd.ID]
		if !ok {
			continue
		}
		switch fd.Type {
		case model.FieldSingleChoice:
			if v, ok := answer.(string); ok {
				total += optionSurcharge(fd, v)
			}
		case model.FieldMultiChoice:
			if set, ok := answer.([]string); ok {
				for _, v := range set {
					total += optionSurcharge(fd, v)
				}
			}
		}
	}
	return total
}

func optionSurcharge(fd model.FieldDescriptor, value string) int64 {
	for _, opt := range fd.Options {
		if opt.Value == value {
			return opt.Surcharge
		}
	}
	return 0
}

// roundPercent returns round(amount × percent / 100), rounding half away from
// zero on the minor-unit grid.
func roundPercent(amount int64, percent int) int64 {
	product := amount * int64(percent)
	if product >= 0 {
		return (product + 50) / 100
	}
	return (product - 50) / 100
}
