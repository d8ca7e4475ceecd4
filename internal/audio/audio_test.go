package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/dlgview/internal/text"
)

func TestFileID(t *testing.T) {
	assert.Equal(t, uint32(1881179431), FileID(6000680, text.Male))
	assert.Equal(t, uint32(1763736098), FileID(6000680, text.Female))
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("wav", "267111449.wav"), Path("wav", 267111449))
}

func TestMapperLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dialog.csv")
	body := "100,m,abc,bank_a\n" +
		"100,F,def,bank_b\n" +
		"0,m,zero,bank\n" +
		"101,m,,bank\n" +
		"102,m,short\n" +
		"103,x,ghi,bank_c\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	m := NewMapper()
	require.NoError(t, m.LoadFile(path))

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "abc.wav", m.File(100, text.Male))
	assert.Equal(t, "def.wav", m.File(100, text.Female))
	assert.True(t, m.Has(103))
	assert.Equal(t, "", m.File(103, text.Male))
	assert.False(t, m.Has(101))

	info, ok := m.Info(100)
	require.True(t, ok)
	assert.Equal(t, "bank_a", info.SoundBank, "first row wins the sound bank")

	assert.Equal(t, filepath.Join("d", "abc.wav"), m.FilePath(100, text.Male, "d"))
	assert.Equal(t, "", m.FilePath(999, text.Male, "d"))
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	m := NewMapper()
	m.entries[5] = &Info{DialogID: 5, MaleFile: "mapped.wav"}

	_, ok := m.Resolve(dir, 5, text.Male)
	assert.False(t, ok, "nothing on disk")

	hashed := Path(dir, FileID(5, text.Male))
	require.NoError(t, os.WriteFile(hashed, nil, 0644))
	p, ok := m.Resolve(dir, 5, text.Male)
	require.True(t, ok)
	assert.Equal(t, hashed, p)

	mapped := filepath.Join(dir, "mapped.wav")
	require.NoError(t, os.WriteFile(mapped, nil, 0644))
	p, ok = m.Resolve(dir, 5, text.Male)
	require.True(t, ok)
	assert.Equal(t, mapped, p)
}
