package app

import (
	"fmt"
	"math"
)

// Quote computes the total price for a candidate booking. Rounding of
// fractional hourly conversions is half away from zero (math.Round).
//
// Same-day:
//
//	duration 8 (full day): hour -> base*8, day/night -> base flat
//	duration 1..7:         hour -> base*duration
//	                       day   -> round(base/8*duration)
//	                       night -> round(base/24*duration)
//
// Multi-day (days = endDate - startDate):
//
//	hour -> base*8*days, day/night -> base*days
func Quote(base float64, pricingType PricingType, startDate, endDate Date, duration int) (float64, error) {
	if base < 0 {
		return 0, fmt.Errorf("negative base price")
	}
	if endDate.Before(startDate.Time) {
		return 0, fmt.Errorf("end date before start date")
	}

	if startDate.Equal(endDate.Time) {
		if duration < 1 || duration > FullDayDuration {
			return 0, fmt.Errorf("duration must be between 1 and %d hours", FullDayDuration)
		}
		if duration == FullDayDuration {
			if pricingType == PricingHour {
				return base * FullDayDuration, nil
			}
			return base, nil
		}
		switch pricingType {
		case PricingHour:
			return base * float64(duration), nil
		case PricingDay:
			return math.Round(base / 8 * float64(duration)), nil
		case PricingNight:
			return math.Round(base / 24 * float64(duration)), nil
		default:
			return 0, fmt.Errorf("invalid pricing type %q", pricingType)
		}
	}

	days := math.Ceil(endDate.Sub(startDate.Time).Hours() / 24)
	if pricingType == PricingHour {
		return base * FullDayDuration * days, nil
	}
	return base * days, nil
}
