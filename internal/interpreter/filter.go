package interpreter

import (
	"fmt"
	"strings"

	"github.com/yok-tottii/cry-interpreter/internal/classifier"
)

// DefaultThreshold is the minimum (exclusive) score a category needs to be shown
const DefaultThreshold = 0.20

// LabelSet is the fixed, ordered vocabulary of displayed labels.
// The position of a label is its index on the chart axis.
type LabelSet []string

// DefaultLabels returns the cry categories in chart order
func DefaultLabels() LabelSet {
	return LabelSet{"Tired", "Burping", "Discomfort", "Hungry", "Belly Pain"}
}

// NewLabelSet validates labels: at least one, none blank, no case-insensitive duplicates
func NewLabelSet(labels ...string) (LabelSet, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("label set is empty")
	}

	set := make(LabelSet, 0, len(labels))
	for i, label := range labels {
		if strings.TrimSpace(label) == "" {
			return nil, fmt.Errorf("label %d is blank", i)
		}
		if j := set.IndexOf(label); j >= 0 {
			return nil, fmt.Errorf("label %q duplicates %q", label, set[j])
		}
		set = append(set, label)
	}
	return set, nil
}

// IndexOf returns the index of the first label equal to label ignoring case, or -1
func (s LabelSet) IndexOf(label string) int {
	for i, l := range s {
		if strings.EqualFold(l, label) {
			return i
		}
	}
	return -1
}

// DisplayEntry is one chart bar: a LabelSet index and a percentage in [0,100]
type DisplayEntry struct {
	Index      int
	Percentage float64
}

// FilterAndMap turns raw classifier output into chart bars.
// Categories scoring at or below threshold are dropped first, then the rest are
// matched against labels in classifier order; unknown labels are dropped.
// ok is false when nothing survives, meaning the chart must keep its
// previous bars rather than be cleared.
func FilterAndMap(categories []classifier.Category, labels LabelSet, threshold float64) (entries []DisplayEntry, ok bool) {
	for _, category := range categories {
		if category.Score <= threshold {
			continue
		}
		index := labels.IndexOf(category.Label)
		if index < 0 {
			continue
		}
		entries = append(entries, DisplayEntry{
			Index:      index,
			Percentage: category.Score * 100,
		})
	}

	if len(entries) == 0 {
		return nil, false
	}
	return entries, true
}
