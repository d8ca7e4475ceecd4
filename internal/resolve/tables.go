package resolve

import (
	"fmt"

	"github.com/f3rmion/dlgview/internal/dialog"
)

// SpeakerContextual is the speaker id whose identity depends on the party
// condition of the line it answers.
const SpeakerContextual int32 = 257

// Speaker ids used for the protagonist's lines.
var knownPlayers = map[int32]struct{}{
	2: {}, 10: {}, 14: {}, 18: {}, 26: {}, 34: {}, 66: {}, 74: {},
	78: {}, 110: {}, 138: {}, 258: {}, 266: {}, 274: {}, 290: {}, 322: {},
}

// IsKnownPlayer reports whether a speaker id is a protagonist id.
func IsKnownPlayer(id int32) bool {
	_, ok := knownPlayers[id]
	return ok
}

// Composite party flags describe the party shape rather than a companion.
var partyShapes = map[int32]string{
	272: "[Party: Female/s or Female Player]",
	273: "[Party: Contains Mage/s]",
	274: "[Party: Contains Mage/s]",
	275: "[Party: Solo Player]",
}

// Companion flags come in pairs keyed by the even flag.
var companions = map[int32]string{
	256: "Carver",
	258: "Bethany",
	260: "Varric",
	262: "Aveline",
	264: "Isabela",
	266: "Merrill",
	268: "Anders",
	270: "Fenris",
	276: "Sebastian",
}

// PartyMember names the companion (or party shape) a party flag checks.
func PartyMember(flag int32) string {
	if s, ok := partyShapes[flag]; ok {
		return s
	}
	base := flag - flag%2
	if s, ok := companions[base]; ok {
		return s
	}
	return fmt.Sprintf("Unknown Flag %d", flag)
}

// Icon overrides that fold into one of the flavoured tones.
var genusByIcon = map[uint8]dialog.ResponseType{
	5: dialog.Aggressive, 10: dialog.Aggressive, 17: dialog.Aggressive,
	6: dialog.Diplomatic, 11: dialog.Diplomatic, 18: dialog.Diplomatic,
	7: dialog.Humorous, 12: dialog.Humorous, 19: dialog.Humorous,
}

// Genus returns the tone family a link is grouped under.
func Genus(t dialog.ResponseType, icon uint8) dialog.ResponseType {
	if g, ok := genusByIcon[icon]; ok {
		return g
	}
	return t
}

// IsFlavored reports whether a genus has a dedicated wheel slot.
func IsFlavored(g dialog.ResponseType) bool {
	return g == dialog.Diplomatic || g == dialog.Humorous || g == dialog.Aggressive
}

type tone struct {
	label string
	color string
}

var iconTones = map[uint8]tone{
	3:  {"End Romance", ""},
	4:  {"Flirt", "#FF3399"},
	9:  {"Flirt", "#FF3399"},
	8:  {"Lie", "#994C1A"},
	13: {"No", ""},
	14: {"Yes", ""},
	15: {"Investigate", "#B2B266"},
	16: {"Special", "#FFCC33"},
	5:  {"Harsh", "#CC1A1A"},
	10: {"Harsh", "#CC1A1A"},
	17: {"Direct", "#FF4C33"},
	6:  {"Tactful", "#3380E6"},
	11: {"Tactful", "#3380E6"},
	18: {"Helpful", "#4CCC80"},
	7:  {"Witty", "#FF8000"},
	12: {"Witty", "#FF8000"},
	19: {"Charming", "#CC66E6"},
}

var typeColors = map[dialog.ResponseType]string{
	dialog.Neutral:     "#999999",
	dialog.Aggressive:  "#E63333",
	dialog.Diplomatic:  "#4C99E6",
	dialog.Humorous:    "#E68033",
	dialog.Bonus:       "#FFCC33",
	dialog.Follower:    "#66B266",
	dialog.Choice1:     "#B2B2B2",
	dialog.Choice2:     "#B2B2B2",
	dialog.Choice3:     "#B2B2B2",
	dialog.Choice4:     "#B2B2B2",
	dialog.Choice5:     "#B2B2B2",
	dialog.Investigate: "#B2B266",
}

// Label returns the tone label shown for a response.
func Label(t dialog.ResponseType, icon uint8) string {
	if tn, ok := iconTones[icon]; ok {
		return tn.label
	}
	if t == dialog.AutoContinue {
		return "Unknown"
	}
	return t.String()
}

// Color returns the tone colour for a response as "#RRGGBB".
func Color(t dialog.ResponseType, icon uint8) string {
	if tn, ok := iconTones[icon]; ok && tn.color != "" {
		return tn.color
	}
	if c, ok := typeColors[t]; ok {
		return c
	}
	return "#808080"
}
