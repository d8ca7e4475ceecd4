package dialog

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/f3rmion/dlgview/internal/gff"
)

// Creature template fields that tie a creature to its conversation.
const (
	labelConversationResRef = "ConversationResR"
	labelCreatureTag        = "Tag"
)

// FindOwnerTag scans the creature templates (*.xml) in dir for one whose
// conversation resref equals name and returns that creature's tag. Files
// that fail to parse are skipped. It returns "" when no template matches.
func FindOwnerTag(dir, name string) string {
	if dir == "" || name == "" {
		return ""
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.xml"))
	if err != nil {
		return ""
	}
	sort.Strings(paths)

	for _, path := range paths {
		resref, tag, ok := readCreatureTemplate(path)
		if !ok {
			continue
		}
		if resref == name {
			slog.Debug("found conversation owner", "conversation", name, "tag", tag, "file", filepath.Base(path))
			return tag
		}
	}

	slog.Warn("no creature template references conversation", "conversation", name, "dir", dir)
	return ""
}

func readCreatureTemplate(path string) (resref, tag string, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", false
	}
	defer f.Close()

	root, err := gff.Parse(f)
	if err != nil {
		return "", "", false
	}

	st := gff.FindChildByTag(root, "struct")
	if st == nil {
		return "", "", false
	}

	for _, c := range st.Children {
		switch {
		case c.Tag == "resref" && c.Label() == labelConversationResRef:
			resref = c.Content
		case c.Tag == "exostring" && c.Label() == labelCreatureTag:
			tag = c.Content
		}
		if resref != "" && tag != "" {
			break
		}
	}

	return resref, tag, true
}
