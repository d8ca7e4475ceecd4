package text

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidlyEmpty(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"[[CONTINUE]]", true},
		{"before [[x]] after", true},
		{"[TLK 5 - Not Found]", true},
		{"Hello", false},
		{"-1", false},
		{"[Character]", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidlyEmpty(tt.in), "%q", tt.in)
	}
}

func TestTableText(t *testing.T) {
	tbl := NewTable(Male)
	tbl.Add(10, "  Hello <FirstName/>.  ")
	tbl.Add(11, "")
	tbl.Add(12, "[Character]")

	assert.Equal(t, "-1", tbl.Text(-1))
	assert.Equal(t, "", tbl.Text(0))
	assert.Equal(t, "", tbl.Text(-7))
	assert.Equal(t, "Hello Garrett.", tbl.Text(10))
	assert.Equal(t, "", tbl.Text(11))
	assert.Equal(t, "", tbl.Text(12))
	assert.Equal(t, "[TLK 99 - Not Found]", tbl.Text(99))

	tbl.SetGender(Female)
	assert.Equal(t, "Hello Marian.", tbl.Text(10))
}

func TestProcess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Just text", "Just text"},
		{"marker", "[Action]", ""},
		{"paired tags survive", "[b]bold[/b]", "[b]bold[/b]"},
		{"formatting", "<emp>Now</emp> read <title>Book</title> <attrib>-X</attrib>", "Now read Book -X"},
		{"short name", "Hi <A/>", "Hi Garrett"},
		{"values", "<damage/> over <duration/> (<procchance/>)", "[Damage] over [Duration] ([Chance])"},
		{"floats", "<float5/> and <float6x100/>", "[x] and [%]"},
		{"icons", "<staggericon/>Staggered", "[STAGGER] Staggered"},
		{"controls", "Press <Y/> or <GUIInteractionEnter/>", "Press [Y] or [Enter]"},
		{"nocopy", "Item<nocopy/>", "Item"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Process(tt.in, Male))
		})
	}
}

func TestParseGender(t *testing.T) {
	g, err := ParseGender("Female")
	require.NoError(t, err)
	assert.Equal(t, Female, g)

	g, err = ParseGender("m")
	require.NoError(t, err)
	assert.Equal(t, Male, g)

	_, err = ParseGender("other")
	assert.Error(t, err)
}

const tableTalk = `6090301,"Hey! We heard you in there."
6090302,<emp>Quiet</emp>
0,zero id
abc,bad id
6090303,
`

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "TableTalk.csv")
	require.NoError(t, os.WriteFile(path, []byte(tableTalk), 0644))
	return path
}

func TestTableLoadCSV(t *testing.T) {
	tbl := NewTable(Male)
	require.NoError(t, tbl.LoadCSV(writeCSV(t)))

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "Hey! We heard you in there.", tbl.Text(6090301))
	assert.Equal(t, "Quiet", tbl.Text(6090302))
	assert.Equal(t, "[TLK 6090303 - Not Found]", tbl.Text(6090303))
}

func TestStoreImportAndLoad(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "tlk.db"))
	require.NoError(t, err)
	defer store.Close()

	n, err := store.ImportCSV(writeCSV(t))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	raw, ok, err := store.Get(6090302)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "<emp>Quiet</emp>", raw)

	_, ok, err = store.Get(1)
	require.NoError(t, err)
	assert.False(t, ok)

	// Importing again replaces rather than appends.
	n, err = store.ImportCSV(writeCSV(t))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tbl, err := store.Table(Female)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, Female, tbl.Gender())
	assert.Equal(t, "Quiet", tbl.Text(6090302))

	assert.Contains(t, store.Summary(), "Strings: 2")
}
