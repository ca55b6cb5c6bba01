package payroll

import "github.com/shopspring/decimal"

var minutesPerHour = decimal.NewFromInt(60)

// AmountForWindow prices hours worked inside one window. For FIXED_SALARY
// the amount is independent of hours and rate and must be applied once
// per month, never summed across windows.
func AmountForWindow(profile CompensationProfile, rate, hours decimal.Decimal) decimal.Decimal {
	switch profile.PayMode {
	case PayModeMinute:
		return hours.Mul(minutesPerHour).Mul(profile.MinuteRate)
	case PayModeFixedSalary:
		return profile.FixedSalary
	default:
		return hours.Mul(rate)
	}
}

// RoundMoney rounds half away from zero to two decimal places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Settle combines per-window hours into the month totals for profile.
// HOURLY sums each window at its own rate. MINUTE and FIXED_SALARY use
// the month as a single window.
func Settle(month Month, profile CompensationProfile, windows []WindowHours) Calculation {
	totalHours := decimal.Zero
	for _, w := range windows {
		totalHours = totalHours.Add(w.Hours)
	}

	var salary decimal.Decimal
	switch profile.PayMode {
	case PayModeHourly:
		salary = decimal.Zero
		for _, w := range windows {
			salary = salary.Add(AmountForWindow(profile, w.Rate, w.Hours))
		}
	default:
		salary = AmountForWindow(profile, decimal.Zero, totalHours)
	}

	return Calculation{
		EmployeeID:  profile.EmployeeID,
		Month:       month,
		PayMode:     profile.PayMode,
		TotalHours:  RoundMoney(totalHours),
		TotalSalary: RoundMoney(salary),
		Windows:     windows,
	}
}
