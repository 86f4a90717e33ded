package finance

import "github.com/lifecompass/finance-bfa-go/internal/domain"

type band struct {
	min   float64
	label string
	color string
}

// bands are checked top-down; the first band whose min is <= p wins.
var bands = []band{
	{95, "Exceptional", "#1B5E20"},
	{90, "Excellent", "#2E7D32"},
	{80, "Very Good", "#43A047"},
	{70, "Good", "#7CB342"},
	{60, "Above Average", "#C0CA33"},
	{50, "Average", "#FDD835"},
	{40, "Below Average", "#FFB300"},
	{30, "Fair", "#FB8C00"},
	{20, "Needs Work", "#F4511E"},
	{10, "Poor", "#E53935"},
}

var critical = band{label: "Critical", color: "#B71C1C"}

func bandFor(p float64) band {
	for _, b := range bands {
		if p >= b.min {
			return b
		}
	}
	return critical
}

// RatingFor returns the label for a percentile. Anything below 10, including
// negative values and NaN, is Critical.
func RatingFor(percentile float64) string {
	return bandFor(percentile).label
}

// ColorFor returns the display color for a percentile, using the same bands as RatingFor.
func ColorFor(percentile float64) string {
	return bandFor(percentile).color
}

// Rate returns both label and color.
func Rate(percentile float64) domain.Rating {
	b := bandFor(percentile)
	return domain.Rating{Label: b.label, Color: b.color}
}

// Labels lists every rating label from best to worst.
func Labels() []string {
	out := make([]string, 0, len(bands)+1)
	for _, b := range bands {
		out = append(out, b.label)
	}
	return append(out, critical.label)
}
