package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/textdet-labels/internal/geometry"
)

func TestDecode(t *testing.T) {
	label := `[
		{"transcription": "HELLO", "points": [[10,10],[50,10],[50,30],[10,30]]},
		{"transcription": "###", "points": [[60,10],[90,10],[90,30]]},
		{"transcription": "*", "points": [[1,1],[2,1],[2,2],[1,2]]}
	]`

	anns, err := Decode(label)
	require.NoError(t, err)
	require.Len(t, anns, 3)

	assert.Equal(t, "HELLO", anns[0].Text)
	assert.False(t, anns[0].Ignore)
	assert.Equal(t, geometry.Point{X: 50, Y: 30}, anns[0].Polygon[2])

	assert.True(t, anns[1].Ignore)
	assert.Len(t, anns[1].Polygon, 3)
	assert.True(t, anns[2].Ignore)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		label string
	}{
		{"not json", `points`},
		{"wrong type", `{"points": []}`},
		{"bad point arity", `[{"transcription": "a", "points": [[1,2,3],[4,5],[6,7]]}]`},
		{"too few points", `[{"transcription": "a", "points": [[1,2],[4,5]]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.label)
			assert.Error(t, err)
		})
	}

	_, err := Decode(`[{"transcription": "a", "points": [[1,2]]}]`)
	assert.ErrorIs(t, err, geometry.ErrTooFewPoints)
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode(`[]`)
	assert.ErrorIs(t, err, ErrEmptyLabel)
}

func TestEncode_RoundTrip(t *testing.T) {
	anns := []Annotation{
		{Polygon: geometry.Polygon{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 0}}, Text: "abc"},
		{Polygon: geometry.Polygon{{X: 0, Y: 0}, {X: 9, Y: 0}, {X: 9, Y: 9}}, Text: "###", Ignore: true},
	}

	label, err := Encode(anns)
	require.NoError(t, err)

	back, err := Decode(label)
	require.NoError(t, err)
	assert.Equal(t, anns, back)
}

func TestCared(t *testing.T) {
	anns := []Annotation{{Text: "a"}, {Text: "###", Ignore: true}, {Text: "b"}}
	cared := Cared(anns)
	require.Len(t, cared, 2)
	assert.Equal(t, "a", cared[0].Text)
	assert.Equal(t, "b", cared[1].Text)
	assert.Len(t, Polygons(anns), 3)
}

func TestOrderClockwise(t *testing.T) {
	want := geometry.Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5}, {X: 0, Y: 5}}

	shuffled := geometry.Polygon{want[2], want[0], want[3], want[1]}
	assert.Equal(t, want, OrderClockwise(shuffled))

	tri := geometry.Polygon{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	assert.Equal(t, tri, OrderClockwise(tri))
}
