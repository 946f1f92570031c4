package filter

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"

	"insuralytics/internal/core"
	"insuralytics/internal/kpi"
)

// TargetScope identifies the target a computation was made against.
type TargetScope struct {
	VersionID string
	Value     *float64
}

// canonical has a fixed field order; encoding/json keeps struct order.
type canonical struct {
	Years              []int    `json:"years"`
	WeekFrom           int      `json:"week_from"`
	WeekTo             int      `json:"week_to"`
	BusinessTypes      []string `json:"business_types"`
	Organizations      []string `json:"organizations"`
	CustomerCategories []string `json:"customer_categories"`
	InsuranceTypes     []string `json:"insurance_types"`
	Mode               kpi.Mode `json:"mode"`
	TargetVersion      string   `json:"target_version"`
	TargetValue        string   `json:"target_value"`
}

// Fingerprint derives a deterministic cache key from the filter, mode and
// target scope. Selection order, duplicates, width and whitespace variants
// of the same label do not change the result.
func Fingerprint(f Filter, mode kpi.Mode, scope TargetScope) string {
	c := canonical{
		Years:              sortedYears(f.Years),
		WeekFrom:           max(f.WeekFrom, 0),
		WeekTo:             max(f.WeekTo, 0),
		BusinessTypes:      sortedLabels(f.BusinessTypes),
		Organizations:      sortedLabels(f.Organizations),
		CustomerCategories: sortedLabels(f.CustomerCategories),
		InsuranceTypes:     sortedLabels(f.InsuranceTypes),
		Mode:               mode,
		TargetVersion:      scope.VersionID,
		TargetValue:        "null",
	}
	if c.Mode == "" {
		c.Mode = kpi.ModeAbsolute
	}
	if scope.Value != nil {
		c.TargetValue = strconv.FormatFloat(*scope.Value, 'g', -1, 64)
	}
	// Marshalling slices of strings and ints cannot fail.
	b, _ := json.Marshal(c)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func sortedLabels(in []string) []string {
	out := core.NormalizeAll(in)
	sort.Strings(out)
	return out
}

func sortedYears(in []int) []int {
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	for _, y := range in {
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
