package target

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insuralytics/internal/core"
	"insuralytics/internal/filter"
)

func row(d core.Dimension, label string, v int64) GoalRow {
	return GoalRow{Dimension: d, Label: label, Target: decimal.NewFromInt(v)}
}

func sampleTable() *Table {
	return NewTable([]GoalRow{
		row(core.DimBusinessType, "车险整体", 43200),
		row(core.DimBusinessType, "非营业客车新车", 12000),
		row(core.DimBusinessType, "摩托车", 0),
		row(core.DimOrganization, "天府", 8000),
		row(core.DimOrganization, "高新", 6000),
		row(core.DimCustomerCategory, "个人", 20000),
		row(core.DimInsuranceType, "交强险", 9000),
	})
}

func TestResolveBusinessTypeWinsOverBroaderSelections(t *testing.T) {
	f := filter.Filter{
		BusinessTypes:      []string{"车险整体"},
		Organizations:      []string{"天府"},
		CustomerCategories: []string{"个人"},
	}

	got := Resolve(f, sampleTable())

	require.NotNil(t, got)
	assert.Equal(t, 43200.0, *got)
}

func TestResolveSumsWithinALevel(t *testing.T) {
	got := Resolve(filter.Filter{Organizations: []string{"天府", " 高新"}}, sampleTable())
	require.NotNil(t, got)
	assert.Equal(t, 14000.0, *got)
}

func TestResolveZeroMatchFallsThrough(t *testing.T) {
	f := filter.Filter{
		BusinessTypes: []string{"摩托车"},
		Organizations: []string{"高新"},
	}

	got := Resolve(f, sampleTable())

	require.NotNil(t, got)
	assert.Equal(t, 6000.0, *got, "zero target must not suppress the organization level")
}

func TestResolveCascadeOrder(t *testing.T) {
	tbl := sampleTable()
	cases := []struct {
		name string
		f    filter.Filter
		want float64
	}{
		{"customer category", filter.Filter{CustomerCategories: []string{"个人"}, InsuranceTypes: []string{"交强险"}}, 20000},
		{"insurance type", filter.Filter{InsuranceTypes: []string{"交强险"}}, 9000},
		{"unknown labels fall to overall", filter.Filter{Organizations: []string{"不存在"}}, 43200},
		{"no selections uses overall", filter.Filter{}, 43200},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.f, tbl)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestResolveNilWithoutPositiveOverall(t *testing.T) {
	tbl := NewTable([]GoalRow{row(core.DimOrganization, "天府", 0)})
	assert.Nil(t, Resolve(filter.Filter{Organizations: []string{"天府"}}, tbl))
	assert.Nil(t, Resolve(filter.Filter{}, nil))
}

func TestTableOverallDefaultsToBusinessTypeSum(t *testing.T) {
	tbl := NewTable([]GoalRow{
		row(core.DimBusinessType, "非营业客车新车", 100),
		row(core.DimBusinessType, "摩托车", 50),
		row(core.DimOrganization, "天府", 1000),
	})
	assert.Equal(t, 150.0, tbl.Overall())
	assert.Equal(t, 2, tbl.Len(core.DimBusinessType))
	v, ok := tbl.Lookup(core.DimOrganization, "天府 ")
	assert.True(t, ok)
	assert.Equal(t, 1000.0, v)
}
