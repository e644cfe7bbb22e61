package ledger

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// QueryOptions filters and orders consolidated customers for display.
type QueryOptions struct {
	// Search matches case-insensitively against the display name, or against
	// the digits of the phone number.
	Search string
	// Status: "all" | "paid" | "unpaid". Ignored while ShowAllBills is false.
	Status string
	// Sort: "highest" | "lowest" (outstanding) | "oldest" | "newest" (bill age).
	Sort string
	// ShowAllBills=false force-filters to customers that still owe something,
	// regardless of Status — outstanding-only is the higher-priority constraint.
	ShowAllBills bool
}

// QueryCustomers is the pure view layer over consolidation output. The sort is
// stable, so repeated calls with unchanged input and options return identical
// ordering.
func QueryCustomers(all []ConsolidatedCustomer, opts QueryOptions) []ConsolidatedCustomer {
	search := strings.ToLower(strings.TrimSpace(opts.Search))
	searchDigits := digitsOnly(search)

	out := make([]ConsolidatedCustomer, 0, len(all))
	for _, c := range all {
		if !matchesStatus(&c, opts) {
			continue
		}
		if search != "" && !matchesSearch(&c, search, searchDigits) {
			continue
		}
		out = append(out, c)
	}

	switch opts.Sort {
	case "lowest":
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].TotalOutstanding.LessThan(out[j].TotalOutstanding)
		})
	case "oldest":
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].OldestBillDate.Before(out[j].OldestBillDate)
		})
	case "newest":
		sort.SliceStable(out, func(i, j int) bool {
			return out[j].OldestBillDate.Before(out[i].OldestBillDate)
		})
	default: // "highest"
		sort.SliceStable(out, func(i, j int) bool {
			return out[j].TotalOutstanding.LessThan(out[i].TotalOutstanding)
		})
	}
	return out
}

func matchesStatus(c *ConsolidatedCustomer, opts QueryOptions) bool {
	if !opts.ShowAllBills {
		return c.TotalOutstanding.GreaterThan(decimal.Zero)
	}
	switch opts.Status {
	case "paid":
		return c.TotalOutstanding.LessThanOrEqual(decimal.Zero)
	case "unpaid":
		return c.TotalOutstanding.GreaterThan(decimal.Zero)
	default:
		return true
	}
}

func matchesSearch(c *ConsolidatedCustomer, search, searchDigits string) bool {
	if strings.Contains(strings.ToLower(c.Name), search) {
		return true
	}
	if searchDigits != "" && strings.Contains(digitsOnly(c.Phone), searchDigits) {
		return true
	}
	return false
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
