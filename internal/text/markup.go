package text

import "strings"

var formatting = strings.NewReplacer(
	"<emp>", "", "</emp>", "",
	"<title>", "", "</title>", "",
	"<attrib>", "", "</attrib>", "",
)

var placeholders = strings.NewReplacer(
	// Values
	"<powervalue/>", "[Value]",
	"<damage/>", "[Damage]",
	"<force/>", "[Force]",
	"<duration/>", "[Duration]",
	"<value/>", "[Value]",
	"<procchance/>", "[Chance]",
	"<float5x100/>", "[%]",
	"<float6x100/>", "[%]",
	"<float7x100/>", "[%]",
	"<float5/>", "[x]",
	"<float6/>", "[x]",
	"<float7/>", "[x]",

	// Status icons
	"<brittleicon/>", "[BRITTLE] ",
	"<staggericon/>", "[STAGGER] ",
	"<disorienticon/>", "[DISORIENT] ",

	// Controls
	"<theleftstick/>", "[Left Stick]",
	"<Y/>", "[Y]",
	"<LT/>", "[LT]",
	"<GUIInteractionEnter/>", "[Enter]",

	"<itemrequirements/>", "[Requirements]",
	"<passive1/>", "[Passive]",
	"<upgrade1/>", "[Upgrade]",
	"<nocopy/>", "",
)

// PlayerName returns the default protagonist name for gender.
func PlayerName(g Gender) string {
	if g == Female {
		return "Marian"
	}
	return "Garrett"
}

// Process converts raw localized text to plain display text. A string that
// is a single bracketed marker such as "[Character]" becomes "".
func Process(raw string, g Gender) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") && !strings.Contains(s, "[/") {
		return ""
	}

	s = formatting.Replace(s)

	name := PlayerName(g)
	s = strings.ReplaceAll(s, "<FirstName/>", name)
	s = strings.ReplaceAll(s, "<A/>", name)

	return placeholders.Replace(s)
}
