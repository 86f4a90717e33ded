package finance

import "github.com/lifecompass/finance-bfa-go/internal/domain"

// Reference tables derived from US population data. They are read-only:
// the engine hands out copies and never writes to them.

func floor(p float64) *float64 { return &p }

// incomeTable maps monthly USD income to a percentile.
var incomeTable = &Table{
	Kind:            KindIncome,
	Ordering:        Ascending,
	FloorPercentile: floor(0),
	Entries: []domain.PercentileBreakpoint{
		{Breakpoint: 500, Percentile: 5},
		{Breakpoint: 800, Percentile: 10},
		{Breakpoint: 1200, Percentile: 15},
		{Breakpoint: 1600, Percentile: 20},
		{Breakpoint: 2000, Percentile: 25},
		{Breakpoint: 2400, Percentile: 30},
		{Breakpoint: 2750, Percentile: 35},
		{Breakpoint: 3100, Percentile: 40},
		{Breakpoint: 3300, Percentile: 45},
		{Breakpoint: 3518, Percentile: 50},
		{Breakpoint: 4000, Percentile: 55},
		{Breakpoint: 4600, Percentile: 60},
		{Breakpoint: 5300, Percentile: 65},
		{Breakpoint: 6100, Percentile: 70},
		{Breakpoint: 7000, Percentile: 75},
		{Breakpoint: 8300, Percentile: 80},
		{Breakpoint: 10000, Percentile: 85},
		{Breakpoint: 12500, Percentile: 90},
		{Breakpoint: 16667, Percentile: 95},
		{Breakpoint: 25000, Percentile: 98},
		{Breakpoint: 41667, Percentile: 99.5},
		{Breakpoint: 83333, Percentile: 99.9},
	},
}

// expenseTable is stored from the highest spend (worst percentile) down to the
// lowest spend (best percentile).
var expenseTable = &Table{
	Kind:            KindExpense,
	Ordering:        Descending,
	FloorPercentile: floor(99.9),
	Entries: []domain.PercentileBreakpoint{
		{Breakpoint: 30000, Percentile: 1},
		{Breakpoint: 25000, Percentile: 4.3},
		{Breakpoint: 22500, Percentile: 6.6},
		{Breakpoint: 20000, Percentile: 9.3},
		{Breakpoint: 18500, Percentile: 11.2},
		{Breakpoint: 17000, Percentile: 13.2},
		{Breakpoint: 16000, Percentile: 14.8},
		{Breakpoint: 15000, Percentile: 16.4},
		{Breakpoint: 14000, Percentile: 18.2},
		{Breakpoint: 13000, Percentile: 20.1},
		{Breakpoint: 12500, Percentile: 21.1},
		{Breakpoint: 12000, Percentile: 22.2},
		{Breakpoint: 11500, Percentile: 23.4},
		{Breakpoint: 11000, Percentile: 24.6},
		{Breakpoint: 10500, Percentile: 25.8},
		{Breakpoint: 10000, Percentile: 27.1},
		{Breakpoint: 9500, Percentile: 28.6},
		{Breakpoint: 9000, Percentile: 30},
		{Breakpoint: 8750, Percentile: 30.8},
		{Breakpoint: 8500, Percentile: 31.6},
		{Breakpoint: 8250, Percentile: 32.5},
		{Breakpoint: 8000, Percentile: 33.3},
		{Breakpoint: 7750, Percentile: 34.2},
		{Breakpoint: 7500, Percentile: 35.2},
		{Breakpoint: 7250, Percentile: 36.1},
		{Breakpoint: 7000, Percentile: 37.1},
		{Breakpoint: 6750, Percentile: 38.2},
		{Breakpoint: 6500, Percentile: 39.2},
		{Breakpoint: 6250, Percentile: 40.4},
		{Breakpoint: 6000, Percentile: 41.6},
		{Breakpoint: 5800, Percentile: 42.5},
		{Breakpoint: 5600, Percentile: 43.6},
		{Breakpoint: 5400, Percentile: 44.6},
		{Breakpoint: 5200, Percentile: 45.7},
		{Breakpoint: 5000, Percentile: 46.9},
		{Breakpoint: 4900, Percentile: 47.5},
		{Breakpoint: 4800, Percentile: 48.1},
		{Breakpoint: 4700, Percentile: 48.7},
		{Breakpoint: 4600, Percentile: 49.3},
		{Breakpoint: 4500, Percentile: 50},
		{Breakpoint: 4400, Percentile: 51.8},
		{Breakpoint: 4300, Percentile: 53.5},
		{Breakpoint: 4200, Percentile: 55.2},
		{Breakpoint: 4100, Percentile: 57},
		{Breakpoint: 4000, Percentile: 58.7},
		{Breakpoint: 3900, Percentile: 60.3},
		{Breakpoint: 3800, Percentile: 62},
		{Breakpoint: 3700, Percentile: 63.6},
		{Breakpoint: 3600, Percentile: 65.2},
		{Breakpoint: 3500, Percentile: 66.8},
		{Breakpoint: 3400, Percentile: 68.4},
		{Breakpoint: 3300, Percentile: 69.9},
		{Breakpoint: 3200, Percentile: 71.4},
		{Breakpoint: 3100, Percentile: 72.9},
		{Breakpoint: 3000, Percentile: 74.4},
		{Breakpoint: 2900, Percentile: 75.9},
		{Breakpoint: 2800, Percentile: 77.3},
		{Breakpoint: 2700, Percentile: 78.7},
		{Breakpoint: 2600, Percentile: 80.1},
		{Breakpoint: 2500, Percentile: 81.4},
		{Breakpoint: 2400, Percentile: 82.7},
		{Breakpoint: 2300, Percentile: 84},
		{Breakpoint: 2200, Percentile: 85.3},
		{Breakpoint: 2100, Percentile: 86.5},
		{Breakpoint: 2000, Percentile: 87.7},
		{Breakpoint: 1900, Percentile: 88.9},
		{Breakpoint: 1800, Percentile: 90},
		{Breakpoint: 1700, Percentile: 91.1},
		{Breakpoint: 1600, Percentile: 92.1},
		{Breakpoint: 1500, Percentile: 93.1},
		{Breakpoint: 1400, Percentile: 94.1},
		{Breakpoint: 1300, Percentile: 95},
		{Breakpoint: 1200, Percentile: 95.9},
		{Breakpoint: 1100, Percentile: 96.7},
		{Breakpoint: 1000, Percentile: 97.5},
		{Breakpoint: 900, Percentile: 98.1},
		{Breakpoint: 800, Percentile: 98.7},
		{Breakpoint: 700, Percentile: 99.2},
		{Breakpoint: 600, Percentile: 99.5},
	},
}

// savingsTable maps a savings rate (percent of income, possibly negative) to a percentile.
var savingsTable = &Table{
	Kind:     KindSavings,
	Ordering: Ascending,
	Entries: []domain.PercentileBreakpoint{
		{Breakpoint: -120, Percentile: 0.5},
		{Breakpoint: -100, Percentile: 1.61},
		{Breakpoint: -90, Percentile: 2.62},
		{Breakpoint: -80, Percentile: 3.86},
		{Breakpoint: -70, Percentile: 5.31},
		{Breakpoint: -60, Percentile: 6.93},
		{Breakpoint: -50, Percentile: 8.73},
		{Breakpoint: -45, Percentile: 9.69},
		{Breakpoint: -40, Percentile: 10.69},
		{Breakpoint: -35, Percentile: 11.73},
		{Breakpoint: -30, Percentile: 12.81},
		{Breakpoint: -25, Percentile: 13.92},
		{Breakpoint: -20, Percentile: 15.07},
		{Breakpoint: -17.5, Percentile: 15.65},
		{Breakpoint: -15, Percentile: 16.25},
		{Breakpoint: -12.5, Percentile: 16.85},
		{Breakpoint: -10, Percentile: 17.47},
		{Breakpoint: -8, Percentile: 17.96},
		{Breakpoint: -6, Percentile: 18.46},
		{Breakpoint: -5, Percentile: 18.72},
		{Breakpoint: -4, Percentile: 18.97},
		{Breakpoint: -3, Percentile: 19.23},
		{Breakpoint: -2, Percentile: 19.48},
		{Breakpoint: -1, Percentile: 19.74},
		{Breakpoint: 0, Percentile: 20},
		{Breakpoint: 1, Percentile: 21.85},
		{Breakpoint: 2, Percentile: 23.45},
		{Breakpoint: 3, Percentile: 24.97},
		{Breakpoint: 4, Percentile: 26.44},
		{Breakpoint: 5, Percentile: 27.87},
		{Breakpoint: 6, Percentile: 29.27},
		{Breakpoint: 7, Percentile: 30.65},
		{Breakpoint: 8, Percentile: 32.01},
		{Breakpoint: 9, Percentile: 33.35},
		{Breakpoint: 10, Percentile: 34.68},
		{Breakpoint: 11, Percentile: 36},
		{Breakpoint: 12, Percentile: 37.3},
		{Breakpoint: 13, Percentile: 38.59},
		{Breakpoint: 14, Percentile: 39.88},
		{Breakpoint: 15, Percentile: 41.15},
		{Breakpoint: 16, Percentile: 42.41},
		{Breakpoint: 17, Percentile: 43.67},
		{Breakpoint: 18, Percentile: 44.92},
		{Breakpoint: 19, Percentile: 46.16},
		{Breakpoint: 20, Percentile: 47.4},
		{Breakpoint: 21, Percentile: 48.63},
		{Breakpoint: 22, Percentile: 49.85},
		{Breakpoint: 22.12, Percentile: 50},
		{Breakpoint: 23, Percentile: 51.13},
		{Breakpoint: 24, Percentile: 52.41},
		{Breakpoint: 25, Percentile: 53.68},
		{Breakpoint: 26, Percentile: 54.93},
		{Breakpoint: 27, Percentile: 56.18},
		{Breakpoint: 28, Percentile: 57.41},
		{Breakpoint: 29, Percentile: 58.63},
		{Breakpoint: 30, Percentile: 59.84},
		{Breakpoint: 31, Percentile: 61.03},
		{Breakpoint: 32, Percentile: 62.21},
		{Breakpoint: 33, Percentile: 63.39},
		{Breakpoint: 34, Percentile: 64.55},
		{Breakpoint: 35, Percentile: 65.69},
		{Breakpoint: 36, Percentile: 66.83},
		{Breakpoint: 37, Percentile: 67.95},
		{Breakpoint: 38, Percentile: 69.06},
		{Breakpoint: 39, Percentile: 70.15},
		{Breakpoint: 40, Percentile: 71.23},
		{Breakpoint: 41, Percentile: 72.3},
		{Breakpoint: 42, Percentile: 73.35},
		{Breakpoint: 43, Percentile: 74.4},
		{Breakpoint: 44, Percentile: 75.42},
		{Breakpoint: 45, Percentile: 76.44},
		{Breakpoint: 46, Percentile: 77.43},
		{Breakpoint: 47, Percentile: 78.42},
		{Breakpoint: 48, Percentile: 79.39},
		{Breakpoint: 49, Percentile: 80.34},
		{Breakpoint: 50, Percentile: 81.28},
		{Breakpoint: 52, Percentile: 83.11},
		{Breakpoint: 54, Percentile: 84.88},
		{Breakpoint: 56, Percentile: 86.58},
		{Breakpoint: 58, Percentile: 88.21},
		{Breakpoint: 60, Percentile: 89.76},
		{Breakpoint: 62, Percentile: 91.25},
		{Breakpoint: 65, Percentile: 93.32},
		{Breakpoint: 68, Percentile: 95.19},
		{Breakpoint: 71, Percentile: 96.84},
		{Breakpoint: 74, Percentile: 98.23},
		{Breakpoint: 77, Percentile: 99.31},
		{Breakpoint: 80, Percentile: 99.9},
	},
}
