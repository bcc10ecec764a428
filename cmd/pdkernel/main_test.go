package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

const crackDeck = `
quadrature: {family: triangle, order: 3}
mesh: {nx: 10, ny: 10, lx: 1.0, ly: 1.0}
horizon: 0.3
fracture:
  cracks:
    - {pb: [0.55, -0.1], pt: [0.55, 0.5], activation_time: 0.0}
    - {pb: [0.05, 0.75], pt: [0.45, 0.75], activation_time: 2.0}
workers: 2
logging: {level: error}
`

func writeDeck(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestQuadDefaultDeck(t *testing.T) {
	out, err := run(t, "quad")
	require.NoError(t, err)
	assert.Contains(t, out, "Elements: 100")
	assert.Contains(t, out, "Quadrature: quadrangle order 2, 4 points per element")
	assert.Contains(t, out, "Total points: 400")
	assert.Contains(t, out, "Total area: 1 (domain 1)")
}

func TestQuadWithRule(t *testing.T) {
	path := writeDeck(t, crackDeck)
	out, err := run(t, "quad", "--deck", path, "--rule", "-w", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "triangle rule, order 3, 4 points")
	assert.Contains(t, out, "Elements: 200")
}

func TestCrack(t *testing.T) {
	path := writeDeck(t, crackDeck)
	out, err := run(t, "crack", "--deck", path, "--time", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cracks applied at t = 1: true (1 of 2 active)")
	assert.NotContains(t, out, "Broken bonds = 0\n")
	assert.NotContains(t, out, "Max damage: 0.000000")

	out, err = run(t, "crack", "--deck", path, "--time", "3", "--print-level", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "(2 of 2 active)")
	assert.Contains(t, out, "Number of cracks = 2")
}

func TestDeckInitAndCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "default.yaml")
	_, err := run(t, "deck", "init", path)
	require.NoError(t, err)

	out, err := run(t, "deck", "check", "--deck", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Quadrature: quadrangle order 2")
	assert.Contains(t, out, "Number of cracks = 0")
}

func TestBadInput(t *testing.T) {
	_, err := run(t, "quad", "--deck", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	path := writeDeck(t, "quadrature: {order: 40}\n")
	_, err = run(t, "quad", "--deck", path)
	assert.Error(t, err)

	_, err = run(t, "crack", "--workers", "0")
	assert.Error(t, err)
}

func TestEnvOverridesWithoutDeck(t *testing.T) {
	t.Setenv("PDKERNEL_WORKERS", "3")
	t.Setenv("PDKERNEL_STRATEGY", "round-robin")
	out, err := run(t, "deck", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Workers: 3 (round-robin)")

	t.Setenv("PDKERNEL_WORKERS", "0")
	_, err = run(t, "deck", "check")
	assert.Error(t, err)
}

func TestStrategyFlag(t *testing.T) {
	path := writeDeck(t, crackDeck)
	block, err := run(t, "crack", "--deck", path, "--time", "3")
	require.NoError(t, err)
	rr, err := run(t, "crack", "--deck", path, "--time", "3", "--strategy", "round-robin", "-w", "5")
	require.NoError(t, err)
	assert.Equal(t, block, rr)

	out, err := run(t, "quad", "--strategy", "rr")
	require.NoError(t, err)
	assert.Contains(t, out, "Total points: 400")

	_, err = run(t, "quad", "--strategy", "diagonal")
	assert.Error(t, err)
}
