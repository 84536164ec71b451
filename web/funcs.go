package web

import (
	"html/template"
	"strconv"

	"github.com/YuminosukeSato/houseprice/visualize"
)

// missingValue is shown for metrics that could not be computed.
const missingValue = "n/a"

var templateFuncs = template.FuncMap{
	"price": visualize.FormatPrice,
	"optfloat": func(v *float64) string {
		if v == nil {
			return missingValue
		}
		return strconv.FormatFloat(*v, 'f', 4, 64)
	},
	// percent formats a value that is already in percent.
	"percent": func(v *float64) string {
		if v == nil {
			return missingValue
		}
		return strconv.FormatFloat(*v, 'f', 2, 64) + "%"
	},
}
