package stats

import (
	"errors"
	"fmt"
)

// Category is the outcome bucket a test is currently attributed to.
type Category int

const (
	Skipped Category = iota
	Warned
	Errored
	Updated
	Passed
	Failed

	numCategories
)

// TotalKey is the synthetic snapshot key holding the sum of all categories.
const TotalKey = "total"

// ErrUnknownCategory is returned for names outside the closed category set.
var ErrUnknownCategory = errors.New("unknown category")

var categoryNames = [numCategories]string{
	Skipped: "skipped",
	Warned:  "warned",
	Errored: "errored",
	Updated: "updated",
	Passed:  "passed",
	Failed:  "failed",
}

// Categories returns every category in declaration order.
func Categories() []Category {
	out := make([]Category, numCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

func (c Category) String() string {
	if !c.valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

func (c Category) valid() bool {
	return c >= 0 && c < numCategories
}

// ParseCategory maps a category name back to its Category.
func ParseCategory(name string) (Category, error) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}
