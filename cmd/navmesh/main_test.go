package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const floorObj = `# 20x20 floor
v 0 0 0
v 20 0 0
v 20 0 20
v 0 0 20
f 1 4 3 2
`

func writeFloor(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "floor.obj")
	require.NoError(t, os.WriteFile(path, []byte(floorObj), 0o644))
	return path
}

func TestParseVec3(t *testing.T) {
	v, err := parseVec3("1, 2.5,-3")
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{1, 2.5, -3}, v)

	_, err = parseVec3("1,2")
	assert.Error(t, err)
	_, err = parseVec3("1,a,2")
	assert.Error(t, err)
}

func TestBuildCmd(t *testing.T) {
	obj := writeFloor(t)
	out := t.TempDir()

	c := BuildCmd()
	c.SetArgs([]string{"--obj", obj, "--out", out, "--dump-obj"})
	require.NoError(t, c.Execute())

	for _, name := range []string{"default.navmesh", "default.nav.obj", "default.pmesh.obj", "default.dmesh.obj", "default.cset.txt"} {
		info, err := os.Stat(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
}

func TestPathCmd(t *testing.T) {
	obj := writeFloor(t)

	var stdout bytes.Buffer
	c := PathCmd()
	c.SetOut(&stdout)
	c.SetArgs([]string{"--obj", obj, "--from", "3,0,3", "--to", "16,0,15"})
	require.NoError(t, c.Execute())
	assert.Len(t, strings.Split(strings.TrimSpace(stdout.String()), "\n"), 2)

	c = PathCmd()
	c.SetOut(&bytes.Buffer{})
	c.SetErr(&bytes.Buffer{})
	c.SetArgs([]string{"--obj", obj, "--from", "3,0,3", "--to", "16,0,15", "--agent", "nobody"})
	assert.Error(t, c.Execute())
}
