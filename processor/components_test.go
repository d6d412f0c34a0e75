package processor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramprate-analysis/models"
)

func crosswalkRow(plantID int, combustorID, generatorID string) models.CrosswalkRow {
	return models.CrosswalkRow{
		ComponentID: -1,
		PlantID:     plantID,
		CombustorID: combustorID,
		GeneratorID: generatorID,
	}
}

func TestAssignComponentsTwoDisjointClusters(t *testing.T) {
	crosswalk := []models.CrosswalkRow{
		//cluster A: two combustors sharing one generator
		crosswalkRow(1, "c1", "g1"),
		crosswalkRow(1, "c2", "g1"),
		//cluster B: a one-to-one pair at another plant
		crosswalkRow(2, "c1", "g1"),
	}

	assigned, err := AssignComponents(crosswalk)
	require.NoError(t, err)
	require.Len(t, assigned, 3)

	assert.Equal(t, 0, assigned[0].ComponentID)
	assert.Equal(t, 0, assigned[1].ComponentID)
	assert.Equal(t, 1, assigned[2].ComponentID)
}

func TestAssignComponentsManyToMany(t *testing.T) {
	//a combustor shared by two generators and a generator shared by two
	//combustors chain into one component
	crosswalk := []models.CrosswalkRow{
		crosswalkRow(1, "c1", "g1"),
		crosswalkRow(1, "c1", "g2"),
		crosswalkRow(1, "c2", "g2"),
		//unrelated pair
		crosswalkRow(9, "c9", "g9"),
	}

	assigned, err := AssignComponents(crosswalk)
	require.NoError(t, err)

	assert.Equal(t, assigned[0].ComponentID, assigned[1].ComponentID)
	assert.Equal(t, assigned[1].ComponentID, assigned[2].ComponentID)
	assert.NotEqual(t, assigned[0].ComponentID, assigned[3].ComponentID)
}

func TestAssignComponentsIsAPartition(t *testing.T) {
	crosswalk := []models.CrosswalkRow{
		crosswalkRow(1, "c1", "g1"),
		crosswalkRow(1, "c2", "g1"),
		crosswalkRow(2, "c1", "g1"),
		crosswalkRow(2, "c1", "g2"),
		crosswalkRow(3, "c1", "g1"),
	}

	assigned, err := AssignComponents(crosswalk)
	require.NoError(t, err)

	//every row has exactly one component id, and no unit key maps into two
	//different components
	combustorComponent := map[models.UnitKey]int{}
	generatorComponent := map[models.UnitKey]int{}
	for _, row := range assigned {
		require.GreaterOrEqual(t, row.ComponentID, 0)
		if prev, seen := combustorComponent[row.CombustorKey()]; seen {
			assert.Equal(t, prev, row.ComponentID)
		}
		combustorComponent[row.CombustorKey()] = row.ComponentID
		if prev, seen := generatorComponent[row.GeneratorKey()]; seen {
			assert.Equal(t, prev, row.ComponentID)
		}
		generatorComponent[row.GeneratorKey()] = row.ComponentID
	}
}

func TestAssignComponentsPreservesRowOrderAndFields(t *testing.T) {
	row := crosswalkRow(1, "c1", "g1")
	row.MatchType = "CAMD Match"
	row.GeneratorUnitType = "ST"

	assigned, err := AssignComponents([]models.CrosswalkRow{row})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, "CAMD Match", assigned[0].MatchType)
	assert.Equal(t, "ST", assigned[0].GeneratorUnitType)
	assert.Equal(t, 0, assigned[0].ComponentID)
}

func TestAssignComponentsEmptyInput(t *testing.T) {
	assigned, err := AssignComponents(nil)
	require.NoError(t, err)
	assert.Empty(t, assigned)
}

func TestVerifyBipartiteDetectsOddStructure(t *testing.T) {
	//force a malformed id assignment where a combustor and a generator share
	//a surrogate id: the resulting self edge cannot be 2-colored
	crosswalk := []models.CrosswalkRow{crosswalkRow(1, "c1", "g1")}
	combustorIDs := map[models.UnitKey]int{{PlantID: 1, UnitID: "c1"}: 0}
	generatorIDs := map[models.UnitKey]int{{PlantID: 1, UnitID: "g1"}: 0}

	forest := newDisjointSet(2)
	err := verifyBipartite(crosswalk, combustorIDs, generatorIDs, forest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-bipartite")
	assert.Contains(t, err.Error(), "node set")
}

func TestRemoveIrrelevant(t *testing.T) {
	matched := crosswalkRow(1, "c1", "g1")
	matched.MatchType = "CAMD Match"
	unmatched := crosswalkRow(1, "c2", "g2")
	unmatched.MatchType = "CAMD Unmatched"
	excluded := crosswalkRow(1, "c3", "g3")
	excluded.MatchType = "Manual CAMD Excluded"

	kept := RemoveIrrelevant([]models.CrosswalkRow{matched, unmatched, excluded})
	require.Len(t, kept, 1)
	assert.Equal(t, "c1", kept[0].CombustorID)
}

func TestFilterRetirements(t *testing.T) {
	active := crosswalkRow(1, "active", "g1")
	active.CombustorStatus = "OP"
	active.CombustorStatusAt = time.Date(2001, 6, 1, 0, 0, 0, 0, time.UTC)

	retiredBeforeWindow := crosswalkRow(1, "early-ret", "g2")
	retiredBeforeWindow.CombustorStatus = "RET"
	retiredBeforeWindow.CombustorRetireYr = 2012
	retiredBeforeWindow.CombustorStatusAt = time.Date(2012, 3, 1, 0, 0, 0, 0, time.UTC)

	retiredInWindow := crosswalkRow(1, "late-ret", "g3")
	retiredInWindow.CombustorStatus = "RET"
	retiredInWindow.CombustorRetireYr = 2017
	retiredInWindow.CombustorStatusAt = time.Date(2017, 3, 1, 0, 0, 0, 0, time.UTC)

	builtAfterWindow := crosswalkRow(1, "future", "g4")
	builtAfterWindow.CombustorStatus = "OP"
	builtAfterWindow.CombustorStatusAt = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	kept := FilterRetirements([]models.CrosswalkRow{active, retiredBeforeWindow, retiredInWindow, builtAfterWindow}, 2015, 2019)

	require.Len(t, kept, 2)
	assert.Equal(t, "active", kept[0].CombustorID)
	assert.Equal(t, "late-ret", kept[1].CombustorID)
}

func TestDisjointSet(t *testing.T) {
	d := newDisjointSet(5)
	d.union(0, 1)
	d.union(3, 4)
	d.union(1, 3)

	assert.Equal(t, d.find(0), d.find(4))
	assert.NotEqual(t, d.find(0), d.find(2))
}
