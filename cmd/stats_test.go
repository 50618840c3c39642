//go:build !integration

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makaveli-BG/dkp-discord-bot/internal/roster"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/schema"
)

func buildView(t *testing.T) *snapshotView {
	t.Helper()

	header := []string{"ID", "NAME", "DISCORD", "DKP SCORE"}
	rows := [][]string{
		{"1001", "Alice", "alice#1", "1500"},
		{"1002", "Bob", "", "900"},
	}
	sc, err := schema.Infer(header, schema.DefaultRules())
	require.NoError(t, err)
	idx, warnings := roster.Build(rows, sc)

	return &snapshotView{schema: sc, index: idx, warnings: warnings}
}

func TestFindPlayer_ByID(t *testing.T) {
	view := buildView(t)

	rec, err := findPlayer(view, []string{"1001"}, "")
	require.NoError(t, err)
	assert.Equal(t, "Alice", rec.Name)
}

func TestFindPlayer_UnknownID(t *testing.T) {
	view := buildView(t)

	_, err := findPlayer(view, []string{"9999"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "9999")
}

func TestFindPlayer_ByDiscord(t *testing.T) {
	view := buildView(t)

	rec, err := findPlayer(view, nil, "alice#1")
	require.NoError(t, err)
	assert.Equal(t, "1001", rec.PlayerID)
}

func TestFindPlayer_NotLinked(t *testing.T) {
	view := buildView(t)

	_, err := findPlayer(view, nil, "stranger#9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not linked")
}

func TestFindPlayer_NoSelector(t *testing.T) {
	view := buildView(t)

	_, err := findPlayer(view, nil, "")
	require.Error(t, err)
}

func TestOrDash(t *testing.T) {
	assert.Equal(t, "-", orDash(""))
	assert.Equal(t, "x", orDash("x"))
}
