package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/dlgview/internal/dialog"
	"github.com/f3rmion/dlgview/internal/plot"
)

func choice(target, textRef int32, rt dialog.ResponseType, icon uint8, flags uint32) dialog.Link {
	return dialog.Link{
		TargetNodeIndex: target,
		TextRef:         textRef,
		ResponseType:    rt,
		IconOverride:    icon,
		ConditionFlags:  flags,
	}
}

func clocks(opts []Option) []int {
	out := make([]int, len(opts))
	for i, o := range opts {
		out[i] = o.Clock
	}
	return out
}

func neutralOptions(n int) []Option {
	genera := []dialog.ResponseType{
		dialog.Neutral, dialog.Choice1, dialog.Choice2, dialog.Choice3,
		dialog.Choice4, dialog.Choice5, dialog.Bonus,
	}
	opts := make([]Option, n)
	for i := range opts {
		opts[i] = Option{Genus: genera[i]}
	}
	return opts
}

func TestLayoutTable(t *testing.T) {
	tests := []struct {
		n    int
		want []int
	}{
		{1, []int{1}},
		{2, []int{1, 5}},
		{3, []int{1, 5, 9}},
		{4, []int{1, 3, 5, 9}},
		{5, []int{1, 3, 5, 7, 11}},
		{6, []int{1, 3, 5, 7, 9, 11}},
	}
	for _, tt := range tests {
		opts := neutralOptions(tt.n)
		Layout(opts, DefaultRadius)
		assert.Equal(t, tt.want, clocks(opts), "n=%d", tt.n)
		for _, o := range opts {
			assert.True(t, o.Placed)
		}
	}
}

func TestLayoutThreeFlavored(t *testing.T) {
	opts := []Option{
		{Genus: dialog.Neutral},
		{Genus: dialog.Choice1},
		{Genus: dialog.Diplomatic},
	}
	Layout(opts, DefaultRadius)

	// Diplomatic claims 1 o'clock, the rest fill 3 and 5 in order.
	assert.Equal(t, []int{3, 5, 1}, clocks(opts))
}

func TestLayoutPreferredSlots(t *testing.T) {
	opts := []Option{
		{Genus: dialog.Aggressive},
		{Genus: dialog.Neutral},
		{Genus: dialog.Humorous},
		{Genus: dialog.Diplomatic},
	}
	Layout(opts, DefaultRadius)
	assert.Equal(t, []int{5, 9, 3, 1}, clocks(opts))
}

func TestLayoutTwoAggressiveFirst(t *testing.T) {
	// With two options the pattern is {1, 5 o'clock}. The preferred slot
	// indexes the pattern, so Aggressive (position 2) has no slot to claim
	// and fills in order.
	tests := []struct {
		genera []dialog.ResponseType
		want   []int
	}{
		{[]dialog.ResponseType{dialog.Aggressive, dialog.Neutral}, []int{1, 5}},
		{[]dialog.ResponseType{dialog.Neutral, dialog.Aggressive}, []int{1, 5}},
		{[]dialog.ResponseType{dialog.Aggressive, dialog.Diplomatic}, []int{5, 1}},
		{[]dialog.ResponseType{dialog.Humorous, dialog.Neutral}, []int{5, 1}},
	}
	for _, tt := range tests {
		opts := make([]Option, len(tt.genera))
		for i, g := range tt.genera {
			opts[i] = Option{Genus: g}
		}
		Layout(opts, DefaultRadius)
		assert.Equal(t, tt.want, clocks(opts), "%v", tt.genera)
	}
}

func TestLayoutTooMany(t *testing.T) {
	opts := neutralOptions(7)
	Layout(opts, DefaultRadius)
	for _, o := range opts {
		assert.False(t, o.Placed)
		assert.Equal(t, 0, o.Clock)
	}
	assert.Equal(t, -1, HitTest(opts, 0, 0))
}

func TestLayoutPositions(t *testing.T) {
	opts := neutralOptions(6)
	Layout(opts, 100)

	want := []Point{
		{50, -86.6025},
		{100, 0},
		{50, 86.6025},
		{-50, 86.6025},
		{-100, 0},
		{-50, -86.6025},
	}
	for i, o := range opts {
		assert.InDelta(t, want[i].X, o.Position.X, 0.001, "x %d", i)
		assert.InDelta(t, want[i].Y, o.Position.Y, 0.001, "y %d", i)
	}
	assert.Equal(t, 60.0, opts[0].Angle)
	assert.Equal(t, 120.0, opts[5].Angle)
}

func TestOptionsTieBreak(t *testing.T) {
	node := &dialog.Node{NodeIndex: 0, Links: []dialog.Link{
		choice(1, 10, dialog.Diplomatic, 255, dialog.NoCondition),
		choice(2, 11, dialog.Diplomatic, 255, 42),
	}}
	tbl := table(map[int32]string{10: "Fine.", 11: "If you insist."})

	opts := Options(node, plot.NewState(), tbl, DefaultRadius)

	require.Len(t, opts, 1)
	assert.Equal(t, uint32(42), opts[0].Link.ConditionFlags)
	assert.Equal(t, "If you insist.", opts[0].Text)
}

func TestOptionsTieBreakAllUnconditional(t *testing.T) {
	node := &dialog.Node{Links: []dialog.Link{
		choice(1, 10, dialog.Humorous, 255, dialog.NoCondition),
		choice(2, 11, dialog.Humorous, 12, dialog.NoCondition),
	}}
	tbl := table(map[int32]string{10: "Ha.", 11: "Heh."})

	opts := Options(node, plot.NewState(), tbl, DefaultRadius)
	require.Len(t, opts, 1)
	assert.Equal(t, int32(1), opts[0].Link.TargetNodeIndex)
}

func TestOptionsEndToEndTactful(t *testing.T) {
	root := dialog.NewNode()
	root.NodeIndex = 0
	root.SpeakerID = 40
	root.Links = []dialog.Link{
		choice(1, 20, dialog.Diplomatic, 11, 7),
		choice(2, 21, dialog.Diplomatic, 255, dialog.NoCondition),
	}
	conv := conversation([]int32{0}, root, line(1, 2, 0), line(2, 2, 0))
	tbl := table(map[int32]string{20: "Let's be reasonable.", 21: "Calm down."})

	node, err := conv.Node(conv.EntryLinks[0].TargetNodeIndex)
	require.NoError(t, err)
	opts := Options(node, plot.NewState(), tbl, DefaultRadius)

	require.Len(t, opts, 1)
	o := opts[0]
	assert.Equal(t, int32(1), o.Link.TargetNodeIndex)
	assert.Equal(t, dialog.Diplomatic, o.Genus)
	assert.Equal(t, "Tactful", o.Label)
	assert.Equal(t, 1, o.Clock)
	assert.InDelta(t, 75.0, o.Position.X, 0.001)
	assert.InDelta(t, -129.9038, o.Position.Y, 0.001)
}

func TestOptionsFiltering(t *testing.T) {
	withPreview := choice(5, -1, dialog.Choice2, 255, dialog.NoCondition)
	withPreview.PreviewText = "Preview only"

	node := &dialog.Node{Links: []dialog.Link{
		choice(1, 10, dialog.AutoContinue, 255, dialog.NoCondition), // not a choice
		choice(2, 99, dialog.Neutral, 255, dialog.NoCondition),      // not found
		choice(3, 11, dialog.Choice1, 255, dialog.NoCondition),      // placeholder
		choice(4, 12, dialog.Investigate, 255, dialog.NoCondition),
		withPreview,
		choice(6, -1, dialog.Bonus, 255, dialog.NoCondition), // no text at all
	}}
	tbl := table(map[int32]string{10: "Go on.", 11: "[[CONTINUE]] x", 12: "Tell me more."})

	opts := Options(node, plot.NewState(), tbl, DefaultRadius)

	require.Len(t, opts, 2)
	assert.Equal(t, int32(4), opts[0].Link.TargetNodeIndex)
	assert.Equal(t, int32(5), opts[1].Link.TargetNodeIndex)
	assert.Equal(t, "Preview only", opts[1].Text)
	assert.Equal(t, []int{1, 5}, clocks(opts))
}

func TestOptionsIdempotent(t *testing.T) {
	node := &dialog.Node{Links: []dialog.Link{
		choice(1, 10, dialog.Aggressive, 255, dialog.NoCondition),
		choice(2, 11, dialog.Diplomatic, 18, 3),
		choice(3, 12, dialog.Neutral, 255, dialog.NoCondition),
		choice(4, 13, dialog.Humorous, 7, dialog.NoCondition),
	}}
	tbl := table(map[int32]string{10: "a", 11: "b", 12: "c", 13: "d"})
	state := plot.NewState()

	first := Options(node, state, tbl, DefaultRadius)
	second := Options(node, state, tbl, DefaultRadius)
	assert.Equal(t, first, second)
	assert.Equal(t, []int{5, 1, 9, 3}, clocks(first))
}

func TestOptionsNilNode(t *testing.T) {
	assert.Nil(t, Options(nil, plot.NewState(), table(nil), DefaultRadius))
}

func TestHitTest(t *testing.T) {
	opts := neutralOptions(2)
	Layout(opts, DefaultRadius)

	assert.Equal(t, 0, HitTest(opts, 75, -130))
	assert.Equal(t, 0, HitTest(opts, 75+59, -130+19))
	assert.Equal(t, 1, HitTest(opts, 75, 130))
	assert.Equal(t, -1, HitTest(opts, 0, 0))
	assert.Equal(t, -1, HitTest(opts, 75+61, -130))
}

func TestGenusLabelColor(t *testing.T) {
	assert.Equal(t, dialog.Aggressive, Genus(dialog.Neutral, 17))
	assert.Equal(t, dialog.Diplomatic, Genus(dialog.Neutral, 6))
	assert.Equal(t, dialog.Humorous, Genus(dialog.Aggressive, 19))
	assert.Equal(t, dialog.Bonus, Genus(dialog.Bonus, 255))
	assert.Equal(t, dialog.Neutral, Genus(dialog.Neutral, 4))

	assert.Equal(t, "Flirt", Label(dialog.Neutral, 9))
	assert.Equal(t, "Yes", Label(dialog.Neutral, 14))
	assert.Equal(t, "Choice 3", Label(dialog.Choice3, 255))
	assert.Equal(t, "Unknown", Label(dialog.ResponseType(77), 255))

	assert.Equal(t, "#3380E6", Color(dialog.Diplomatic, 11))
	assert.Equal(t, "#E68033", Color(dialog.Humorous, 14), "icons without a colour use the type")
	assert.Equal(t, "#808080", Color(dialog.ResponseType(77), 255))
}

func TestTruncate(t *testing.T) {
	short := "Short enough."
	assert.Equal(t, short, Truncate(short, MaxTextWidth))

	long := "This line is definitely longer than forty characters."
	got := Truncate(long, MaxTextWidth)
	assert.Equal(t, long[:37]+"...", got)

	o := Option{Text: long}
	assert.Equal(t, got, o.Short())
}

func TestFindOption(t *testing.T) {
	opts := []Option{{Link: dialog.Link{TargetNodeIndex: 4}}, {Link: dialog.Link{TargetNodeIndex: 9}}}
	assert.Equal(t, 1, FindOption(opts, 9))
	assert.Equal(t, -1, FindOption(opts, 3))
}
