package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diamondRows() []Row {
	return []Row{
		{ID: "A", Duration: 3, Precedence: "-"},
		{ID: "B", Duration: 2, Precedence: "A"},
		{ID: "C", Duration: 4, Precedence: "A"},
		{ID: "D", Duration: 1, Precedence: "B,C"},
	}
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		spec string
		want []string
	}{
		{"-", nil},
		{"", nil},
		{"A", []string{"A"}},
		{"F, I", []string{"F", "I"}},
		{"A,,B", []string{"A", "B"}},
		{" - , K", []string{"K"}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePrecedence(tt.spec))
		})
	}
}

func TestBuild_SimpleDAG(t *testing.T) {
	g, err := Build(diamondRows())
	require.NoError(t, err)

	assert.Equal(t, 4, g.Len())
	assert.Equal(t, []string{"A"}, g.Roots)
	assert.Equal(t, []string{"D"}, g.Leaves)
	assert.Equal(t, []string{"B", "C"}, g.Activity("A").Successors)
	assert.Equal(t, []string{"D"}, g.Activity("B").Successors)
	assert.Equal(t, []string{"B", "C"}, g.Activity("D").Predecessors)
	assert.Len(t, g.Pred[g.Index["D"]], 2)
}

func TestBuild_SuccessorsSortedByID(t *testing.T) {
	// Declared in reverse order; successor lists still come out sorted.
	rows := []Row{
		{ID: "Z", Duration: 1, Precedence: "root"},
		{ID: "M", Duration: 1, Precedence: "root"},
		{ID: "B", Duration: 1, Precedence: "root"},
		{ID: "root", Duration: 1, Precedence: "-"},
	}
	g, err := Build(rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "M", "Z"}, g.Activity("root").Successors)
}

func TestBuild_DanglingReferenceIgnored(t *testing.T) {
	rows := []Row{
		{ID: "Z", Duration: 5, Precedence: "Q"},
	}
	g, err := Build(rows)
	require.NoError(t, err)

	z := g.Activity("Z")
	require.NotNil(t, z)
	assert.Equal(t, []string{"Q"}, z.Predecessors, "declared list is preserved")
	assert.Empty(t, g.Pred[g.Index["Z"]])
	assert.Equal(t, []string{"Z"}, g.Roots)
	assert.Nil(t, g.Activity("Q"))
}

func TestBuild_DuplicateIDLastWriteWins(t *testing.T) {
	rows := []Row{
		{ID: "A", Duration: 2, Precedence: "-"},
		{ID: "B", Duration: 1, Precedence: "-"},
		{ID: "A", Duration: 7, Precedence: "B"},
	}
	g, err := Build(rows)
	require.NoError(t, err)

	assert.Equal(t, 2, g.Len())
	a := g.Activity("A")
	assert.Equal(t, 7, a.Duration)
	assert.Equal(t, []string{"B"}, a.Predecessors)
	assert.Equal(t, []string{"A"}, g.Activity("B").Successors)
}

func TestBuild_Strict(t *testing.T) {
	rows := []Row{
		{ID: "A", Duration: -1, Precedence: "-"},
		{ID: "A", Duration: 2, Precedence: "-"},
		{ID: "B", Duration: 1, Precedence: "A,Q"},
		{ID: "", Duration: 1, Precedence: "-"},
	}
	_, err := Build(rows, Strict())
	require.Error(t, err)

	var kinds []ValidationKind
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var ve *ValidationError
		require.True(t, errors.As(e, &ve))
		kinds = append(kinds, ve.Kind)
	}
	assert.ElementsMatch(t, []ValidationKind{NegativeDuration, DuplicateID, EmptyID, DanglingReference}, kinds)
	assert.Contains(t, err.Error(), `activity "B": dangling reference to "Q"`)
}

func TestBuild_StrictAcceptsCleanInput(t *testing.T) {
	g, err := Build(diamondRows(), Strict())
	require.NoError(t, err)
	assert.Equal(t, 4, g.Len())
}

func TestTopoSort_RespectsEdges(t *testing.T) {
	g, err := Build(diamondRows())
	require.NoError(t, err)

	idx, err := g.TopoSort()
	require.NoError(t, err)
	order := g.Order(idx)

	require.Len(t, order, 4)
	assert.Equal(t, "A", order[0])
	pos := make(map[string]int)
	for i, id := range order {
		pos[id] = i
	}
	for i, preds := range g.Pred {
		for _, p := range preds {
			assert.Less(t, pos[g.Activities[p].ID], pos[g.Activities[i].ID])
		}
	}
}

func TestTopoSort_IndependentActivities(t *testing.T) {
	rows := []Row{
		{ID: "c", Duration: 1},
		{ID: "a", Duration: 1},
		{ID: "b", Duration: 1},
	}
	g, err := Build(rows)
	require.NoError(t, err)

	idx, err := g.TopoSort()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, g.Order(idx))
}

func TestTopoSort_Cycle(t *testing.T) {
	rows := []Row{
		{ID: "X", Duration: 1, Precedence: "Y"},
		{ID: "Y", Duration: 1, Precedence: "X"},
	}
	g, err := Build(rows)
	require.NoError(t, err)

	idx, err := g.TopoSort()
	assert.Nil(t, idx)
	require.ErrorIs(t, err, ErrCycle)

	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Y", ce.From)
	assert.Equal(t, "X", ce.To)
	assert.Equal(t, []string{"X", "Y", "X"}, ce.Path)
}

func TestTopoSort_SelfLoop(t *testing.T) {
	g, err := Build([]Row{{ID: "A", Duration: 1, Precedence: "A"}})
	require.NoError(t, err)

	_, err = g.TopoSort()
	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"A", "A"}, ce.Path)
}

func TestTopoSort_LongChain(t *testing.T) {
	// Deep enough that a recursive walk would be a concern.
	const n = 100000
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{ID: chainID(i), Duration: 1, Precedence: "-"}
		if i > 0 {
			rows[i].Precedence = chainID(i - 1)
		}
	}
	g, err := Build(rows)
	require.NoError(t, err)

	idx, err := g.TopoSort()
	require.NoError(t, err)
	order := g.Order(idx)
	assert.Equal(t, chainID(0), order[0])
	assert.Equal(t, chainID(n-1), order[n-1])
}

func chainID(i int) string {
	const digits = "0123456789"
	b := []byte("n000000")
	for p := len(b) - 1; i > 0; p-- {
		b[p] = digits[i%10]
		i /= 10
	}
	return string(b)
}

func TestDetectCycle(t *testing.T) {
	acyclic, err := Build(diamondRows())
	require.NoError(t, err)
	assert.Nil(t, acyclic.DetectCycle())

	cyclic, err := Build([]Row{
		{ID: "a", Duration: 1, Precedence: "c"},
		{ID: "b", Duration: 1, Precedence: "a"},
		{ID: "c", Duration: 1, Precedence: "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "a"}, cyclic.DetectCycle())
}
