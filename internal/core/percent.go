// Package core provides the finance domain model shared by all layers.
//
// This file contains percentage arithmetic helpers. Allocation shares are
// stored as float64 but every value written or reported is first rounded to
// two decimal places through shopspring/decimal, so repeated writes cannot
// accumulate drift. Comparisons against the 100% bound always use the
// PercentTolerance below, never exact equality.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PercentTolerance absorbs binary floating-point noise in percentage sums.
// Both the "exceeds 100" and the "is complete" checks use it.
const PercentTolerance = 0.01

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// SumPercentages adds allocation shares and rounds the result to two
// decimals.
func SumPercentages(values []float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	f, _ := total.Round(2).Float64()
	return f
}

// DedupeCategories trims category names, drops empty ones and removes
// duplicates keeping the first occurrence order.
func DedupeCategories(categories []string) []string {
	seen := make(map[string]struct{}, len(categories))
	unique := make([]string, 0, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}
	return unique
}
