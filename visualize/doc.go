// Package visualize turns prediction results into things a person can look at:
// a histogram PNG of the predicted prices, truncated display tables and a
// downloadable CSV.
package visualize
