// Package dataset reads uploaded CSV files into a named numeric table.
//
// Every cell must be numeric or one of the missing value tokens
// ("", NA, NaN, nan, null, None), which are stored as NaN. The original cell
// text is kept alongside the parsed matrix so the table can be echoed back to
// the user exactly as uploaded.
package dataset
