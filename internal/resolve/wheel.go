package resolve

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/mattn/go-runewidth"

	"github.com/f3rmion/dlgview/internal/dialog"
	"github.com/f3rmion/dlgview/internal/plot"
	"github.com/f3rmion/dlgview/internal/text"
)

// Wheel geometry.
const (
	DefaultRadius = 150.0
	HitWidth      = 120.0
	HitHeight     = 40.0
	MaxOptions    = 6
	MaxTextWidth  = 40
)

// Clock slots 1, 3, 5, 7, 9 and 11 o'clock and their angles in degrees.
var (
	clockHours  = [MaxOptions]int{1, 3, 5, 7, 9, 11}
	clockAngles = [MaxOptions]float64{60, 0, 300, 240, 180, 120}
)

// Layout patterns index clockHours by option count.
var patterns = map[int][]int{
	1: {0},
	2: {0, 2},
	3: {0, 2, 4},
	4: {0, 1, 2, 4},
	5: {0, 1, 2, 3, 5},
	6: {0, 1, 2, 3, 4, 5},
}

// flavoredThree replaces the three-option pattern when any option is
// flavoured.
var flavoredThree = []int{0, 1, 2}

// Preferred pattern positions for flavoured genera.
var preferredSlot = map[dialog.ResponseType]int{
	dialog.Diplomatic: 0,
	dialog.Humorous:   1,
	dialog.Aggressive: 2,
}

// Point is a wheel position relative to its centre, y growing downwards.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Option is one response on the wheel.
type Option struct {
	Link     dialog.Link         `json:"link"`
	Genus    dialog.ResponseType `json:"genus"`
	Text     string              `json:"text"`
	Label    string              `json:"label"`
	Color    string              `json:"color"`
	Placed   bool                `json:"placed"`
	Clock    int                 `json:"clock,omitempty"`
	Angle    float64             `json:"angle"`
	Position Point               `json:"position"`
}

// Short returns the option text truncated for the wheel.
func (o Option) Short() string {
	return Truncate(o.Text, MaxTextWidth)
}

// Truncate shortens s to width columns, ending in "...".
func Truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}

// Options resolves the response wheel for node. Links that auto-continue,
// fail their condition or have no text are dropped; the rest are grouped by
// genus, one link survives per genus, and survivors are laid out on the
// wheel. The result is ordered by first appearance of each genus.
func Options(node *dialog.Node, state plot.Reader, lookup text.Lookup, radius float64) []Option {
	if node == nil {
		return nil
	}

	var (
		order   []dialog.ResponseType
		buckets = make(map[dialog.ResponseType][]Option)
	)
	for _, link := range node.Links {
		if link.ResponseType == dialog.AutoContinue {
			continue
		}
		if !plot.EvaluateLink(link, state) {
			continue
		}
		txt := optionText(link, lookup)
		if !Displayable(txt) {
			continue
		}

		g := Genus(link.ResponseType, link.IconOverride)
		if _, ok := buckets[g]; !ok {
			order = append(order, g)
		}
		buckets[g] = append(buckets[g], Option{
			Link:  link,
			Genus: g,
			Text:  txt,
			Label: Label(link.ResponseType, link.IconOverride),
			Color: Color(link.ResponseType, link.IconOverride),
		})
	}

	opts := make([]Option, 0, len(order))
	for _, g := range order {
		opts = append(opts, pick(buckets[g]))
	}

	Layout(opts, radius)
	slog.Debug("resolved options", "node", node.NodeIndex, "links", len(node.Links), "options", len(opts))
	return opts
}

func optionText(link dialog.Link, lookup text.Lookup) string {
	s := lookup.Text(link.TextRef)
	if s == "" || s == text.Missing {
		s = link.PreviewText
	}
	return s
}

// pick keeps the first conditional link, else the first unconditional one.
func pick(bucket []Option) Option {
	if len(bucket) == 1 {
		return bucket[0]
	}
	for _, o := range bucket {
		if !o.Link.Unconditional() {
			return o
		}
	}
	return bucket[0]
}

// Layout assigns clock slots and positions in place. Flavoured options
// claim their preferred slot first; the rest fill free slots in order.
// More than six options are left unplaced.
func Layout(opts []Option, radius float64) {
	for i := range opts {
		opts[i].Placed = false
		opts[i].Clock = 0
		opts[i].Angle = 0
		opts[i].Position = Point{}
	}

	pattern := layoutPattern(opts)
	if pattern == nil {
		if len(opts) > MaxOptions {
			slog.Warn("too many options for the wheel", "options", len(opts))
		}
		return
	}

	assigned := make([]int, len(opts))
	used := make([]bool, len(pattern))
	for i := range assigned {
		assigned[i] = -1
	}

	for i, o := range opts {
		p, ok := preferredSlot[o.Genus]
		if ok && p < len(pattern) && !used[p] {
			assigned[i] = p
			used[p] = true
		}
	}

	next := 0
	for i := range opts {
		if assigned[i] != -1 {
			continue
		}
		for next < len(pattern) && used[next] {
			next++
		}
		if next < len(pattern) {
			assigned[i] = next
			used[next] = true
			next++
		}
	}

	for i := range opts {
		if assigned[i] < 0 {
			continue
		}
		slot := pattern[assigned[i]]
		angle := clockAngles[slot]
		rad := angle * math.Pi / 180
		opts[i].Placed = true
		opts[i].Clock = clockHours[slot]
		opts[i].Angle = angle
		opts[i].Position = Point{X: math.Cos(rad) * radius, Y: -math.Sin(rad) * radius}
	}
}

func layoutPattern(opts []Option) []int {
	if len(opts) == 3 {
		for _, o := range opts {
			if IsFlavored(o.Genus) {
				return flavoredThree
			}
		}
	}
	return patterns[len(opts)]
}

// HitTest returns the index of the placed option whose hit box contains
// (x, y), relative to the wheel centre, or -1.
func HitTest(opts []Option, x, y float64) int {
	for i, o := range opts {
		if !o.Placed {
			continue
		}
		if math.Abs(x-o.Position.X) <= HitWidth/2 && math.Abs(y-o.Position.Y) <= HitHeight/2 {
			return i
		}
	}
	return -1
}

// FindOption returns the index of the option whose link targets node, or -1.
func FindOption(opts []Option, target int32) int {
	for i, o := range opts {
		if o.Link.TargetNodeIndex == target {
			return i
		}
	}
	return -1
}

func (o Option) String() string {
	if !o.Placed {
		return fmt.Sprintf("[%s] %s -> %d", o.Label, o.Short(), o.Link.TargetNodeIndex)
	}
	return fmt.Sprintf("%2d o'clock [%s] %s -> %d", o.Clock, o.Label, o.Short(), o.Link.TargetNodeIndex)
}
