package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assaymerge/internal/errors"
	"assaymerge/internal/shared/testutil"
	"assaymerge/pkg/contracts/domain"
)

func extractStandard(t *testing.T, wells ...string) (domain.RecordSet, domain.RecordSet, domain.RecordSet) {
	t.Helper()
	grids := testutil.StandardGrids(wells...)
	return Extract(grids.Movement, domain.TableMovement),
		Extract(grids.Turning, domain.TableTurning),
		Extract(grids.Rotation, domain.TableRotation)
}

func dropRecord(set domain.RecordSet, i int) domain.RecordSet {
	records := make([]domain.Record, 0, set.Len()-1)
	records = append(records, set.Records[:i]...)
	records = append(records, set.Records[i+1:]...)
	set.Records = records
	return set
}

func TestJoin_AllKeysShared(t *testing.T) {
	movement, turning, rotation := extractStandard(t)

	merged, err := Join(movement, turning, rotation)
	require.NoError(t, err)
	require.Len(t, merged, movement.Len())

	for i, row := range merged {
		m := movement.Records[i]
		assert.Equal(t, m.MergeKey, row.MergeKey, "movement order is kept")
		assert.Equal(t, m.WellID, row.WellID)
		assert.Equal(t, m.Time, row.Time)
		assert.Equal(t, m.Value(0), row.Movement.DistanceMoved)
		assert.Equal(t, turning.Records[i].Value(4), row.Turning.Meander2)
		assert.Equal(t, rotation.Records[i].Value(1), row.Rotation.CCWRotation)
	}
}

func TestJoin_RemovingOneRecordDropsExactlyOneRow(t *testing.T) {
	movement, turning, rotation := extractStandard(t)
	total := movement.Len()

	tests := []struct {
		name string
		join func() ([]domain.MergedRow, error)
	}{
		{"movement", func() ([]domain.MergedRow, error) { return Join(dropRecord(movement, 2), turning, rotation) }},
		{"turning", func() ([]domain.MergedRow, error) { return Join(movement, dropRecord(turning, 0), rotation) }},
		{"rotation", func() ([]domain.MergedRow, error) { return Join(movement, turning, dropRecord(rotation, total-1)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, err := tt.join()
			require.NoError(t, err)
			assert.Len(t, merged, total-1)
		})
	}
}

func TestJoin_EmptyExtraction(t *testing.T) {
	movement, turning, _ := extractStandard(t)
	rotation := domain.RecordSet{Kind: domain.TableRotation}

	_, err := Join(movement, turning, rotation)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeEmptyExtraction))
	assert.Contains(t, err.Error(), "rotation")
}

func TestJoin_EmptyJoin(t *testing.T) {
	movement, turning, rotation := extractStandard(t)
	for i := range rotation.Records {
		rotation.Records[i].MergeKey += "_shifted"
	}

	_, err := Join(movement, turning, rotation)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeEmptyJoin))

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, map[string]int{"movement": 6, "turning": 6, "rotation": 6}, appErr.Context["extracted"])
}

func TestJoin_UnderscoreIdsDoNotCollide(t *testing.T) {
	movement := domain.RecordSet{Kind: domain.TableMovement, Records: []domain.Record{
		{Kind: domain.TableMovement, ExperimentID: "E1_B3", WellID: "B3", SourceRow: 7, MergeKey: MergeKey("E1_B3", "B3", 7)},
	}}
	turning := domain.RecordSet{Kind: domain.TableTurning, Records: []domain.Record{
		{Kind: domain.TableTurning, ExperimentID: "E1", WellID: "B3_B3", SourceRow: 7, MergeKey: MergeKey("E1", "B3_B3", 7)},
	}}
	rotation := domain.RecordSet{Kind: domain.TableRotation, Records: []domain.Record{
		{Kind: domain.TableRotation, ExperimentID: "E1_B3", WellID: "B3", SourceRow: 7, MergeKey: MergeKey("E1_B3", "B3", 7)},
	}}

	_, err := Join(movement, turning, rotation)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeEmptyJoin))
}

func TestJoin_ArgumentOrder(t *testing.T) {
	movement, turning, rotation := extractStandard(t)

	_, err := Join(turning, movement, rotation)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestJoin_FirstDuplicateKeyWins(t *testing.T) {
	movement, turning, rotation := extractStandard(t, "B1")
	dup := turning.Records[0]
	dup.Values = []*float64{ptr(-1), nil, nil, nil, nil}
	turning.Records = append(turning.Records, dup)

	merged, err := Join(movement, turning, rotation)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.InDelta(t, 5.0, *merged[0].Turning.Heading, 1e-9)
}

func TestCheckAlignment(t *testing.T) {
	t.Run("aligned tables", func(t *testing.T) {
		movement, turning, rotation := extractStandard(t)
		assert.Empty(t, CheckAlignment(movement, turning, rotation))
	})

	t.Run("reordered turning table", func(t *testing.T) {
		movement, turning, rotation := extractStandard(t)
		turning.Records[0].WellID, turning.Records[1].WellID = turning.Records[1].WellID, turning.Records[0].WellID

		warnings := CheckAlignment(movement, turning, rotation)
		require.Len(t, warnings, 2)
		for _, w := range warnings {
			assert.Equal(t, domain.WarningRowOrderMismatch, w.Code)
			assert.Contains(t, w.Message, "turning")
		}
	})
}
