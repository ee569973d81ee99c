package ledger

import "fmt"

type Category string

const (
	CategorySick   Category = "SICK"
	CategoryCasual Category = "CASUAL"
	CategoryEarned Category = "EARNED"
	// CategoryLWP is leave without pay. It is a valid request category but
	// carries no balance.
	CategoryLWP Category = "LWP"
)

var TrackedCategories = []Category{CategorySick, CategoryCasual, CategoryEarned}

var DefaultBalances = Balances{
	CategorySick:   7,
	CategoryCasual: 7,
	CategoryEarned: 15,
}

func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategorySick, CategoryCasual, CategoryEarned, CategoryLWP:
		return c, nil
	}
	return "", fmt.Errorf("unknown leave category %q", s)
}

// Tracked reports whether approvals in this category draw down a balance.
func (c Category) Tracked() bool {
	for _, t := range TrackedCategories {
		if c == t {
			return true
		}
	}
	return false
}

// Balances maps a tracked category to its remaining days.
type Balances map[Category]int

// Merge returns b overlaid with non-nil overrides.
func (b Balances) Merge(overrides map[Category]*int) Balances {
	out := make(Balances, len(b))
	for k, v := range b {
		out[k] = v
	}
	for k, v := range overrides {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}
