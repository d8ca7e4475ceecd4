package plot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/dlgview/internal/dialog"
)

func TestStateSetGet(t *testing.T) {
	s := NewState()

	assert.Equal(t, int32(0), s.Get("plt_x", 3))
	assert.False(t, s.Has("plt_x", 3))

	s.Set("plt_x", 3, 5)
	assert.Equal(t, int32(5), s.Get("plt_x", 3))
	assert.True(t, s.Has("plt_x", 3))

	s.Set("plt_x", 3, 0)
	assert.True(t, s.Has("plt_x", 3), "zero is still set")

	// Ignored writes.
	s.Set("", 1, 1)
	s.Set("plt_y", -1, 1)
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Has("", 1))
	assert.Equal(t, int32(0), s.Get("plt_y", -1))

	s.Reset()
	assert.Equal(t, 0, s.Len())
}

func TestStateFlagsSorted(t *testing.T) {
	s := NewState()
	s.Set("b", 2, 1)
	s.Set("a", 9, 1)
	s.Set("a", 1, 7)

	assert.Equal(t, []Flag{
		{Plot: "a", Index: 1, Value: 7},
		{Plot: "a", Index: 9, Value: 1},
		{Plot: "b", Index: 2, Value: 1},
	}, s.Flags())

	flags := s.Flags()
	flags[0].Value = 0
	assert.Equal(t, int32(7), s.Get("a", 1), "Flags returns a copy")
}

func TestEvaluate(t *testing.T) {
	s := NewState()
	s.Set("plt_zero", 1, 0)
	s.Set("plt_one", 1, 1)

	tests := []struct {
		name string
		ref  dialog.PlotReference
		want bool
	}{
		{"no plot", dialog.NoPlot(), true},
		{"no flag", dialog.PlotReference{PlotName: "plt_x", FlagIndex: -1, Comparison: 0}, true},
		{"implicit unset", dialog.PlotReference{PlotName: "plt_x", FlagIndex: 3, Comparison: 255}, false},
		{"implicit set to zero", dialog.PlotReference{PlotName: "plt_zero", FlagIndex: 1, Comparison: 255}, true},
		{"explicit zero value", dialog.PlotReference{PlotName: "plt_zero", FlagIndex: 1, Comparison: 1}, false},
		{"explicit non-zero", dialog.PlotReference{PlotName: "plt_one", FlagIndex: 1, Comparison: 0}, true},
		{"explicit unset", dialog.PlotReference{PlotName: "plt_x", FlagIndex: 1, Comparison: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.ref, s))
		})
	}
}

func TestApplyThenEvaluate(t *testing.T) {
	s := NewState()
	ref := dialog.PlotReference{PlotName: "plt_x", FlagIndex: 3, Comparison: 255}

	require.False(t, Evaluate(ref, s))
	Apply(ref, s)
	assert.True(t, Evaluate(ref, s))
	assert.Equal(t, int32(1), s.Get("plt_x", 3))

	Apply(dialog.NoPlot(), s)
	Apply(dialog.PlotReference{PlotName: "plt_y", FlagIndex: -1}, s)
	assert.Equal(t, 1, s.Len())

	node := &dialog.Node{Action: dialog.PlotReference{PlotName: "plt_node", FlagIndex: 0, Comparison: 0}}
	ApplyNode(node, s)
	assert.Equal(t, int32(1), s.Get("plt_node", 0), "comparison byte does not change the value")

	cond := &dialog.Node{Condition: dialog.PlotReference{PlotName: "plt_node", FlagIndex: 0, Comparison: 1}}
	assert.True(t, EvaluateNode(cond, s))
}

func TestEvaluateLinkAlwaysTrue(t *testing.T) {
	s := NewState()
	for _, flags := range []uint32{dialog.NoCondition, 2, 6, 0, 42, 123456} {
		assert.True(t, EvaluateLink(dialog.Link{ConditionFlags: flags}, s), "flags %d", flags)
	}
}

func TestDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots.csv")
	body := "plt_gen00pt_party, 1A2B\n" +
		"\"plt_quoted\",\"C3D4\"\n" +
		"plt_no_guid,\n" +
		"lonely\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	db := NewDatabase()
	require.NoError(t, db.LoadFile(path))

	assert.Equal(t, 2, db.Len())
	assert.Equal(t, "1A2B", db.GUID("plt_gen00pt_party"))
	assert.Equal(t, "plt_quoted", db.Plot("C3D4"))
	assert.True(t, db.HasPlot("plt_quoted"))
	assert.True(t, db.HasGUID("1A2B"))
	assert.False(t, db.HasPlot("plt_no_guid"))

	assert.Error(t, db.LoadFile(filepath.Join(t.TempDir(), "missing.csv")))
	assert.Equal(t, 0, db.Len(), "failed load clears")
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		in   string
		want Flag
		err  bool
	}{
		{"plt_quest:3=2", Flag{Plot: "plt_quest", Index: 3, Value: 2}, false},
		{" plt_quest : 3 = -1 ", Flag{Plot: "plt_quest", Index: 3, Value: -1}, false},
		{"plt_quest:7", Flag{Plot: "plt_quest", Index: 7, Value: 1}, false},
		{"ns:plt_x:1=0", Flag{Plot: "ns:plt_x", Index: 1, Value: 0}, false},
		{"plt_quest", Flag{}, true},
		{":3=1", Flag{}, true},
		{"plt_quest:x=1", Flag{}, true},
		{"plt_quest:-2=1", Flag{}, true},
		{"plt_quest:2=yes", Flag{}, true},
	}
	for _, tt := range tests {
		got, err := ParseAssignment(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
