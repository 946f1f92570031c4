package target

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insuralytics/internal/core"
)

func sequentialIDs() Option {
	n := 0
	return WithIDFunc(func() string {
		n++
		return fmt.Sprintf("v%d", n)
	})
}

func mustParse(t *testing.T, in string) []GoalRow {
	t.Helper()
	rows, err := ParseGoalCSV(strings.NewReader(in), NewKnownSet(DefaultBusinessTypes))
	require.NoError(t, err)
	return rows
}

func TestStoreTuneAndSwitchBackScenario(t *testing.T) {
	created := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	initial := mustParse(t, "业务类型,年度目标（万）\n车险整体,43100\n")
	s := NewStore(initial, created)

	tuned := AdjustRows(initial, decimal.NewFromInt(100))
	id, err := s.CreateTunedVersion(tuned, created.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, id, s.CurrentVersion().ID)

	out, err := s.ExportCurrentVersionCSV()
	require.NoError(t, err)
	assert.Contains(t, out, "车险整体,43200")

	require.NoError(t, s.SwitchVersion(s.InitialVersion().ID))
	out, err = s.ExportCurrentVersionCSV()
	require.NoError(t, err)
	assert.Contains(t, out, "车险整体,43100")
	assert.Equal(t, 43100.0, s.CurrentTable().Overall())
}

func TestStoreRoundTrip(t *testing.T) {
	in := "业务类型,年度目标（万）\n车险整体,43100\n非营业客车新车,12000.50\n摩托车,0\n"
	rows := mustParse(t, in)
	s := NewStore(nil, time.Now())

	_, err := s.CreateTunedVersion(rows, time.Now())
	require.NoError(t, err)
	out, err := s.ExportCurrentVersionCSV()
	require.NoError(t, err)

	assert.Equal(t, len(rows)+2, len(strings.Split(out, "\n")))
	back := mustParse(t, out)
	require.Len(t, back, len(rows))
	for i := range rows {
		assert.Equal(t, rows[i].Label, back[i].Label)
		assert.True(t, rows[i].Target.Equal(back[i].Target), "row %d: %s != %s", i, rows[i].Target, back[i].Target)
	}
}

func TestStoreVersionNamesAndIDs(t *testing.T) {
	ts := time.Date(2025, 3, 1, 8, 30, 15, 0, time.UTC)
	s := NewStore(nil, ts, sequentialIDs(), WithLabel("手动调整"))

	id, err := s.CreateTunedVersion(nil, ts)
	require.NoError(t, err)

	assert.Equal(t, "v1", s.InitialVersion().ID)
	assert.True(t, s.InitialVersion().Initial)
	assert.Equal(t, "initial-20250301-083015", s.InitialVersion().Name)
	assert.Equal(t, "v2", id)
	v, err := s.Version(id)
	require.NoError(t, err)
	assert.Equal(t, "手动调整-20250301-083015", v.Name)
	assert.False(t, v.Initial)
}

func TestStoreDefaultIDsAreUnique(t *testing.T) {
	s := NewStore(nil, time.Now())
	ids := map[string]bool{s.InitialVersion().ID: true}
	for i := 0; i < 20; i++ {
		id, err := s.CreateTunedVersion(nil, time.Now())
		require.NoError(t, err)
		require.False(t, ids[id], "duplicate id %s", id)
		ids[id] = true
	}
	assert.Len(t, s.Versions(), 21)
}

func TestStoreRejectsDuplicateIDs(t *testing.T) {
	s := NewStore(nil, time.Now(), WithIDFunc(func() string { return "same" }))
	_, err := s.CreateTunedVersion(nil, time.Now())
	assert.Error(t, err)
	assert.Len(t, s.Versions(), 1)
}

func TestStoreSwitchUnknownVersion(t *testing.T) {
	s := NewStore(nil, time.Now())
	before := s.CurrentVersion().ID

	err := s.SwitchVersion("missing")

	var nf *core.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "missing", nf.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, before, s.CurrentVersion().ID)
}

func TestStoreSwitchDoesNotMutateOtherVersions(t *testing.T) {
	initial := []GoalRow{row(core.DimBusinessType, "车险整体", 43100)}
	s := NewStore(initial, time.Now())
	id, err := s.CreateTunedVersion(AdjustRows(initial, decimal.NewFromInt(100)), time.Now())
	require.NoError(t, err)

	before, err := s.ExportVersionCSV(id)
	require.NoError(t, err)
	require.NoError(t, s.SwitchVersion(s.InitialVersion().ID))
	require.NoError(t, s.SwitchVersion(id))
	after, err := s.ExportVersionCSV(id)
	require.NoError(t, err)

	assert.Equal(t, before, after)
	assert.Equal(t, "43100", s.InitialVersion().Rows()[0].Target.String())
}

func TestStoreTunedVersionInheritsOtherDimensions(t *testing.T) {
	initial := []GoalRow{
		row(core.DimBusinessType, "车险整体", 43100),
		row(core.DimOrganization, "天府", 8000),
	}
	s := NewStore(initial, time.Now())

	_, err := s.CreateTunedVersion([]GoalRow{row(core.DimBusinessType, "车险整体", 50000)}, time.Now())
	require.NoError(t, err)

	v, ok := s.CurrentTable().Lookup(core.DimOrganization, "天府")
	assert.True(t, ok)
	assert.Equal(t, 8000.0, v)
	out, err := s.ExportCurrentVersionCSV()
	require.NoError(t, err)
	assert.Equal(t, "业务类型,年度目标（万）\n车险整体,50000\n", out)
}

func TestStoreSubscribeAndReset(t *testing.T) {
	s := NewStore(nil, time.Now(), sequentialIDs())
	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })

	id, err := s.CreateTunedVersion(nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.SwitchVersion(id)) // already current: no event
	require.NoError(t, s.SwitchVersion("v1"))
	s.Reset()

	require.Len(t, changes, 3)
	assert.Equal(t, Change{Kind: ChangeCreated, VersionID: "v2", PreviousID: "v1"}, changes[0])
	assert.Equal(t, Change{Kind: ChangeSwitched, VersionID: "v1", PreviousID: "v2"}, changes[1])
	assert.Equal(t, ChangeReset, changes[2].Kind)
	assert.Len(t, s.Versions(), 1)
	_, err = s.Version(id)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
