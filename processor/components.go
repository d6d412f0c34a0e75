package processor

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"ramprate-analysis/models"
)

//match classifications whose rows never contribute edges
var irrelevantMatchTypes = map[string]bool{
	"CAMD Unmatched":       true,
	"Manual CAMD Excluded": true,
}

//RemoveIrrelevant drops crosswalk rows whose match classification marks them
//unmatched or excluded (non-exporting)
func RemoveIrrelevant(crosswalk []models.CrosswalkRow) []models.CrosswalkRow {
	kept := make([]models.CrosswalkRow, 0, len(crosswalk))
	for _, row := range crosswalk {
		if !irrelevantMatchTypes[row.MatchType] {
			kept = append(kept, row)
		}
	}
	log.Debug("Removed ", len(crosswalk)-len(kept), " unmatched/excluded crosswalk rows")
	return kept
}

//FilterRetirements drops crosswalk rows whose active year range has no
//overlap with the analysis window: units retired before the window start and
//units not yet built by the window end contribute no edges. A retire year of
//0 means not retired.
func FilterRetirements(crosswalk []models.CrosswalkRow, startYear, endYear int) []models.CrosswalkRow {
	kept := make([]models.CrosswalkRow, 0, len(crosswalk))
	for _, row := range crosswalk {
		notRetiredBeforeStart := row.CombustorRetireYr == 0 || row.CombustorRetireYr >= startYear
		//for a non-retired unit the status-change date is the built-by proxy;
		//a retired unit's status date is its retirement date, already covered
		//by the retire-year check
		notBuiltAfterEnd := row.CombustorStatus == "RET" ||
			row.CombustorStatusAt.IsZero() || row.CombustorStatusAt.Year() <= endYear
		if notRetiredBeforeStart && notBuiltAfterEnd {
			kept = append(kept, row)
		}
	}
	log.Debug("Removed ", len(crosswalk)-len(kept), " crosswalk rows outside years ", startYear, "-", endYear)
	return kept
}

//AssignComponents links combustors and generators that appear together in a
//crosswalk row into connected components and returns the rows annotated with
//a zero-based component id. Components are numbered by their smallest
//surrogate node id so the assignment is deterministic. Each component is
//verified bipartite between the combustor and generator node sets; a
//violation is a data-integrity fault and aborts the assignment.
func AssignComponents(crosswalk []models.CrosswalkRow) ([]models.CrosswalkRow, error) {
	if len(crosswalk) == 0 {
		return nil, nil
	}

	combustorIDs, generatorIDs := makeSurrogateIDs(crosswalk)
	nodeCount := len(combustorIDs) + len(generatorIDs)

	//union each row's combustor/generator pair
	forest := newDisjointSet(nodeCount)
	for _, row := range crosswalk {
		forest.union(combustorIDs[row.CombustorKey()], generatorIDs[row.GeneratorKey()])
	}

	if err := verifyBipartite(crosswalk, combustorIDs, generatorIDs, forest); err != nil {
		return nil, err
	}

	//number components zero-based in order of their smallest member node
	componentByRoot := map[int]int{}
	for node := 0; node < nodeCount; node++ {
		root := forest.find(node)
		if _, seen := componentByRoot[root]; !seen {
			componentByRoot[root] = len(componentByRoot)
		}
	}

	assigned := make([]models.CrosswalkRow, len(crosswalk))
	for i, row := range crosswalk {
		row.ComponentID = componentByRoot[forest.find(combustorIDs[row.CombustorKey()])]
		assigned[i] = row
	}
	log.Debug("Assigned ", len(componentByRoot), " components across ", len(assigned), " crosswalk rows")
	return assigned, nil
}

//makeSurrogateIDs gives every distinct (plant, combustor) pair one integer
//id and every distinct (plant, generator) pair another, with the generator
//id space offset past the combustor ids so the two can never collide. Ids
//are dense and assigned in sorted key order.
func makeSurrogateIDs(crosswalk []models.CrosswalkRow) (map[models.UnitKey]int, map[models.UnitKey]int) {
	combustorKeys := map[models.UnitKey]bool{}
	generatorKeys := map[models.UnitKey]bool{}
	for _, row := range crosswalk {
		combustorKeys[row.CombustorKey()] = true
		generatorKeys[row.GeneratorKey()] = true
	}

	combustorIDs := numberKeys(combustorKeys, 0)
	generatorIDs := numberKeys(generatorKeys, len(combustorIDs))
	return combustorIDs, generatorIDs
}

func numberKeys(keys map[models.UnitKey]bool, offset int) map[models.UnitKey]int {
	sorted := make([]models.UnitKey, 0, len(keys))
	for key := range keys {
		sorted = append(sorted, key)
	}
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a].PlantID != sorted[b].PlantID {
			return sorted[a].PlantID < sorted[b].PlantID
		}
		return sorted[a].UnitID < sorted[b].UnitID
	})
	ids := make(map[models.UnitKey]int, len(sorted))
	for i, key := range sorted {
		ids[key] = offset + i
	}
	return ids
}

//verifyBipartite 2-colors every component over the row adjacency and fails
//on any odd structure: an edge joining two combustor nodes, two generator
//nodes, or a node reachable with conflicting colors. The surrogate id
//construction should make this impossible, so a failure indicates crosswalk
//corruption and is never auto-corrected.
func verifyBipartite(crosswalk []models.CrosswalkRow, combustorIDs, generatorIDs map[models.UnitKey]int, forest *disjointSet) error {
	nodeCount := len(combustorIDs) + len(generatorIDs)
	adjacency := make(map[int][]int, nodeCount)
	for _, row := range crosswalk {
		c := combustorIDs[row.CombustorKey()]
		g := generatorIDs[row.GeneratorKey()]
		adjacency[c] = append(adjacency[c], g)
		adjacency[g] = append(adjacency[g], c)
	}

	const uncolored = 0
	colors := make([]int, nodeCount)
	for start := 0; start < nodeCount; start++ {
		if colors[start] != uncolored {
			continue
		}
		colors[start] = 1
		queue := []int{start}
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			for _, neighbor := range adjacency[node] {
				if colors[neighbor] == uncolored {
					colors[neighbor] = -colors[node]
					queue = append(queue, neighbor)
				} else if colors[neighbor] == colors[node] {
					return fmt.Errorf("non-bipartite component: %s", describeComponent(forest, forest.find(node), nodeCount))
				}
			}
		}
	}
	return nil
}

//describeComponent lists a component's node set for the bipartiteness
//diagnostic
func describeComponent(forest *disjointSet, root, nodeCount int) string {
	var nodes []int
	for node := 0; node < nodeCount; node++ {
		if forest.find(node) == root {
			nodes = append(nodes, node)
		}
	}
	return fmt.Sprintf("node set %v", nodes)
}

//disjointSet is a union-find forest with path compression and union by rank
type disjointSet struct {
	parent []int
	rank   []int
}

func newDisjointSet(n int) *disjointSet {
	d := &disjointSet{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range d.parent {
		d.parent[i] = i
	}
	return d
}

func (d *disjointSet) find(x int) int {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]] //path compression
		x = d.parent[x]
	}
	return x
}

func (d *disjointSet) union(a, b int) {
	rootA, rootB := d.find(a), d.find(b)
	if rootA == rootB {
		return
	}
	if d.rank[rootA] < d.rank[rootB] {
		rootA, rootB = rootB, rootA
	}
	d.parent[rootB] = rootA
	if d.rank[rootA] == d.rank[rootB] {
		d.rank[rootA]++
	}
}
