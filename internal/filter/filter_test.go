package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"insuralytics/internal/core"
	"insuralytics/internal/kpi"
)

func sample() []core.InsuranceRecord {
	return []core.InsuranceRecord{
		{PolicyStartYear: 2025, WeekNumber: 5, BusinessType: "非营业客车新车", Organization: "天府", CustomerCategory: "个人", InsuranceType: "商业险"},
		{PolicyStartYear: 2025, WeekNumber: 6, BusinessType: "非营业货车", Organization: "高新", CustomerCategory: "企业", InsuranceType: "交强险"},
		{PolicyStartYear: 2024, WeekNumber: 6, BusinessType: "非营业客车新车", Organization: "天府", CustomerCategory: "个人", InsuranceType: "商业险"},
	}
}

func TestApplyEmptyFilterKeepsEverything(t *testing.T) {
	assert.Len(t, Filter{}.Apply(sample()), 3)
}

func TestApplyDimensionSelectionsNormalized(t *testing.T) {
	f := Filter{Organizations: []string{" 天府 "}}
	out := f.Apply(sample())
	assert.Len(t, out, 2)
	for _, r := range out {
		assert.Equal(t, "天府", r.Organization)
	}
}

func TestApplyOverallBusinessTypeIsUnrestricted(t *testing.T) {
	f := Filter{BusinessTypes: []string{" 车险整体 "}}
	assert.Len(t, f.Apply(sample()), 3)

	f = Filter{BusinessTypes: []string{core.OverallBusinessType}, Organizations: []string{"天府"}}
	assert.Len(t, f.Apply(sample()), 2, "other dimensions still apply")
}

func TestApplyYearAndWeekBounds(t *testing.T) {
	f := Filter{Years: []int{2025}, WeekFrom: 6, WeekTo: 6}
	out := f.Apply(sample())
	if assert.Len(t, out, 1) {
		assert.Equal(t, "高新", out[0].Organization)
	}
}

func TestApplyCombinesDimensions(t *testing.T) {
	f := Filter{BusinessTypes: []string{"非营业客车新车"}, Years: []int{2024}}
	assert.Len(t, f.Apply(sample()), 1)
	assert.False(t, f.Match(sample()[0]))
	assert.True(t, f.Match(sample()[2]))
}

func TestFingerprintIsCanonical(t *testing.T) {
	a := Filter{BusinessTypes: []string{"A", "B"}, Organizations: []string{"天府"}, Years: []int{2025, 2024}}
	b := Filter{BusinessTypes: []string{"B", " A", "A"}, Organizations: []string{"天府　"}, Years: []int{2024, 2025, 2025}}
	scope := TargetScope{VersionID: "v1", Value: core.Float(43200)}

	assert.Equal(t, Fingerprint(a, kpi.ModeAbsolute, scope), Fingerprint(b, kpi.ModeAbsolute, scope))
	assert.Equal(t, Fingerprint(a, "", scope), Fingerprint(a, kpi.ModeAbsolute, scope))
}

func TestFingerprintDistinguishesMeaningfulChanges(t *testing.T) {
	base := Filter{BusinessTypes: []string{"A"}}
	scope := TargetScope{VersionID: "v1", Value: core.Float(100)}
	seen := map[string]string{}
	add := func(name, fp string) {
		t.Helper()
		if prev, ok := seen[fp]; ok {
			t.Fatalf("fingerprint collision between %s and %s", prev, name)
		}
		seen[fp] = name
	}

	add("base", Fingerprint(base, kpi.ModeAbsolute, scope))
	add("increment", Fingerprint(base, kpi.ModeIncrement, scope))
	add("other version", Fingerprint(base, kpi.ModeAbsolute, TargetScope{VersionID: "v2", Value: core.Float(100)}))
	add("other target", Fingerprint(base, kpi.ModeAbsolute, TargetScope{VersionID: "v1", Value: core.Float(101)}))
	add("no target", Fingerprint(base, kpi.ModeAbsolute, TargetScope{VersionID: "v1"}))
	// The same label under another dimension must not collide.
	add("moved dimension", Fingerprint(Filter{Organizations: []string{"A"}}, kpi.ModeAbsolute, scope))
	// A label containing a separator must not merge with two labels.
	add("joined label", Fingerprint(Filter{BusinessTypes: []string{"A,B"}}, kpi.ModeAbsolute, scope))
	add("two labels", Fingerprint(Filter{BusinessTypes: []string{"A", "B"}}, kpi.ModeAbsolute, scope))
	add("week bound", Fingerprint(Filter{BusinessTypes: []string{"A"}, WeekFrom: 3}, kpi.ModeAbsolute, scope))
}
