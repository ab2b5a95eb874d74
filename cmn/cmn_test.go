package cmn

import (
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIterateSources(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))
	for name, content := range map[string]string{
		"b.yml":        "b",
		"a.yaml":       "a",
		"skip.txt":     "skip",
		"nested/c.yml": "c",
	} {
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	var got []string
	err := IterateSources(dir, []string{".yml", ".yaml"}, func(path string, fc []byte) error {
		got = append(got, string(fc))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	// files given directly are read whatever their suffix
	got = nil
	err = IterateSources(filepath.Join(dir, "skip.txt"), []string{".yml"}, func(path string, fc []byte) error {
		got = append(got, string(fc))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"skip"}, got)
}

func TestIterateSourcesErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.yml")
	require.NoError(t, ioutil.WriteFile(empty, nil, 0644))

	noop := func(string, []byte) error { return nil }
	assert.EqualError(t, IterateSources(empty, nil, noop), empty+" - empty file content")
	assert.Error(t, IterateSources(filepath.Join(dir, "missing"), nil, noop))

	require.NoError(t, ioutil.WriteFile(empty, []byte("x"), 0644))
	boom := errors.New("boom")
	assert.Equal(t, boom, IterateSources(dir, []string{".yml"}, func(string, []byte) error { return boom }))
}

func TestAnsiFlag(t *testing.T) {
	assert.Equal(t, "\033[0m", AttrOff.String())
	assert.Equal(t, "\033[32m", ForeGreen.String())
	assert.Equal(t, "\033[1;31;44m", (AttrBold | ForeRed | BackBlue).String())
}

func TestPrinter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	p := &Printer{Raw: true, Out: out, Err: errOut}
	p.Notify("", "sync %s", "ks")
	p.Success("  ", "done")
	p.Error(errors.New("failed"))
	assert.Equal(t, "sync ks\n", out.String())
	assert.Equal(t, "done\nfailed\n", errOut.String())

	out.Reset()
	p.Raw = false
	p.Warn("  ", "careful")
	p.Notify("", "note")
	assert.Equal(t, "\033[34m"+MediumBulletPoint+" note\033[0m\n", out.String())
	assert.Contains(t, errOut.String(), "  \033[33m"+MediumX+" careful\033[0m\n")
}
