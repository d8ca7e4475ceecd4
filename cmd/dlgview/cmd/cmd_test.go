package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/dlgview/internal/config"
	"github.com/f3rmion/dlgview/internal/dialog"
	"github.com/f3rmion/dlgview/internal/resolve"
	"github.com/f3rmion/dlgview/internal/session"
	"github.com/f3rmion/dlgview/internal/text"
)

var greetingPath = filepath.Join("..", "..", "..", "internal", "session", "testdata", "greeting.xml")

func greetingText() *text.Table {
	t := text.NewTable(text.Male)
	t.Add(100, "Hello there.")
	t.Add(102, "Back off.")
	t.Add(103, "Good.")
	t.Add(200, "Let's talk.")
	t.Add(201, "Get lost.")
	return t
}

func greeting(t *testing.T) *dialog.Conversation {
	t.Helper()
	conv, err := dialog.ParseFile(greetingPath)
	require.NoError(t, err)
	return conv
}

func TestPrintTreeDepth(t *testing.T) {
	tree := resolve.NewTreeResolver(greetingText()).Build(greeting(t))

	var buf bytes.Buffer
	printTree(&buf, tree, treeOptions{depth: 1})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "[0] [A]")
	assert.Contains(t, lines[0], "[TLK 100] Hello there.")

	buf.Reset()
	printTree(&buf, tree, treeOptions{})
	out := buf.String()
	assert.Contains(t, out, "([TLK 200] Let's talk.)")
	assert.Contains(t, out, "  [2]")
}

func TestPrintTreeWraps(t *testing.T) {
	tbl := greetingText()
	tbl.Add(100, strings.Repeat("word ", 30))
	tree := resolve.NewTreeResolver(tbl).Build(greeting(t))

	var buf bytes.Buffer
	printTree(&buf, tree, treeOptions{depth: 1, width: 40})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Greater(t, len(lines), 1)
	assert.True(t, strings.HasPrefix(lines[1], "    "))
}

func TestPrintWheel(t *testing.T) {
	s := session.New(greetingText(), resolve.DefaultRadius)
	s.Load(greeting(t))
	opts, err := s.Options()
	require.NoError(t, err)

	var buf bytes.Buffer
	printWheel(&buf, s.Selected(), opts, false)
	out := buf.String()
	assert.Contains(t, out, "node 0: 2 options")
	assert.Contains(t, out, " 1 o'clock [")
	assert.Contains(t, out, "at (75.0, -129.9)")
	assert.Contains(t, out, " 5 o'clock [")

	buf.Reset()
	printWheel(&buf, 3, nil, true)
	assert.Equal(t, "node 3: no player choices\n", buf.String())
}

func TestDump(t *testing.T) {
	conv := greeting(t)

	var buf bytes.Buffer
	require.NoError(t, dump(&buf, conv, false))
	assert.Contains(t, buf.String(), "Conversation: greeting")
	assert.Contains(t, buf.String(), "Lines: 4")

	buf.Reset()
	require.NoError(t, dump(&buf, conv, true))
	assert.Contains(t, buf.String(), "name: greeting")
	assert.Contains(t, buf.String(), "plot_name: plt_test")
}

func TestApplyOverrides(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("player_gender", "female")
	viper.Set("log_level", "warn")

	cfg := config.Default()
	applyOverrides(cfg)
	assert.Equal(t, text.Female, cfg.Gender())
	assert.Equal(t, "warn", cfg.Log.Level)

	viper.Set("verbose", true)
	applyOverrides(cfg)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadStringsPrefersStore(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "TableTalk.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("100,From CSV\n"), 0o644))

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.TableTalkCSV = "TableTalk.csv"
	cfg.TlkDB = filepath.Join(dir, "tlk.db")

	tbl, err := loadStrings(cfg)
	require.NoError(t, err)
	assert.Equal(t, "From CSV", tbl.Text(100))

	store, err := text.OpenStore(cfg.TlkDB)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(csvPath, []byte("100,From DB\n"), 0o644))
	_, err = store.ImportCSV(csvPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, os.WriteFile(csvPath, []byte("100,Changed\n"), 0o644))

	tbl, err = loadStrings(cfg)
	require.NoError(t, err)
	assert.Equal(t, "From DB", tbl.Text(100))
}

func TestLookupStrings(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "TableTalk.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("100,Hello <FirstName/>.\n101,Plain\n"), 0o644))

	store, err := text.OpenStore(filepath.Join(dir, "tlk.db"))
	require.NoError(t, err)
	defer store.Close()
	_, err = store.ImportCSV(csvPath)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, lookupStrings(&buf, store, []int32{100, 101, 7}, text.Female))
	assert.Equal(t, "100: Hello Marian.\n"+
		"    raw: Hello <FirstName/>.\n"+
		"101: Plain\n"+
		"7: [TLK 7 - Not Found]\n", buf.String())
}

func TestLoadEnvironmentWithoutData(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.TlkDB = filepath.Join(cfg.DataDir, "tlk.db")

	env, err := loadEnvironment(cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, env.lookup.Len())
	assert.Nil(t, env.audio.Mapper)

	s, err := env.openConversation(greetingPath)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "greeting", s.Conversation().Name)
}

func TestWriteDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dlgview")
	data := t.TempDir()

	path, err := writeDefaultConfig(dir, data, false)
	require.NoError(t, err)

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, data, cfg.DataDir)
	assert.Equal(t, filepath.Join(data, "tlk.db"), cfg.TlkDB)
	assert.Equal(t, 64, cfg.CacheSize)

	_, err = writeDefaultConfig(dir, "", false)
	assert.ErrorContains(t, err, "already exists")

	again, err := writeDefaultConfig(dir, "", true)
	require.NoError(t, err)
	assert.Equal(t, path, again)
}
