package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makaveli-BG/dkp-discord-bot/internal/normalize"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/schema"
)

func testSchema(t *testing.T, header []string) *schema.Schema {
	t.Helper()
	s, err := schema.Infer(header, schema.DefaultRules())
	require.NoError(t, err)
	return s
}

func TestBuildNormalizesRow(t *testing.T) {
	sc := testSchema(t, []string{"ID", "NAME", "DiscordID", "DKP SCORE", "DKP GOAL", "KILLS"})
	idx, warnings := Build([][]string{
		{"1", "Alice", "111", "1,200", "1,000", "2.5K"},
	}, sc)

	assert.Empty(t, warnings)
	require.Equal(t, 1, idx.Len())

	rec := idx.ByPlayerID("1")
	require.NotNil(t, rec)
	assert.Equal(t, "Alice", rec.Name)
	assert.Equal(t, "111", rec.LinkedAccount)
	assert.Equal(t, 1, rec.Row)

	assert.Equal(t, int64(1200), rec.Metrics["score"].Value.Int)
	assert.Equal(t, int64(1000), rec.Metrics["goal"].Value.Int)
	assert.Equal(t, int64(2500), rec.Metrics["kills"].Value.Int)
	assert.Equal(t, "1,200", rec.Metrics["score"].Display)
	assert.Equal(t, []string{"score", "goal", "kills"}, rec.MetricKeys)

	assert.Same(t, rec, idx.ByLinkedAccount("111"))
	assert.Same(t, rec, idx.Sample())
}

func TestBuildSkipsBlankIDRows(t *testing.T) {
	sc := testSchema(t, []string{"ID", "NAME", "DKP SCORE"})
	idx, warnings := Build([][]string{
		{"1", "Alice", "100"},
		{"", "", ""}, // separator row
		{"2", "Bob", "200"},
	}, sc)

	assert.Equal(t, 2, idx.Len())
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnBlankID, warnings[0].Kind)
	assert.Equal(t, 2, warnings[0].Row)
}

func TestBuildDuplicatePlayerID(t *testing.T) {
	sc := testSchema(t, []string{"ID", "NAME", "DKP SCORE"})
	idx, warnings := Build([][]string{
		{"1", "Alice", "100"},
		{"1", "Impostor", "999"},
	}, sc)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnDuplicateID, warnings[0].Kind)

	// First occurrence stays authoritative.
	rec := idx.ByPlayerID("1")
	require.NotNil(t, rec)
	assert.Equal(t, "Alice", rec.Name)
	assert.Equal(t, 1, idx.Len())
}

func TestBuildDuplicateLinkedAccount(t *testing.T) {
	sc := testSchema(t, []string{"ID", "NAME", "DiscordID", "DKP SCORE"})
	idx, warnings := Build([][]string{
		{"1", "Alice", "user#1", "100"},
		{"2", "Bob", "user#1", "200"},
	}, sc)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnDuplicateLink, warnings[0].Kind)
	assert.Equal(t, 2, warnings[0].Row)

	// Lookup resolves to the first-seen row only; Bob is still indexed by id.
	rec := idx.ByLinkedAccount("user#1")
	require.NotNil(t, rec)
	assert.Equal(t, "Alice", rec.Name)
	assert.NotNil(t, idx.ByPlayerID("2"))
}

func TestBuildUnlinkedRows(t *testing.T) {
	sc := testSchema(t, []string{"ID", "NAME", "DiscordID", "DKP SCORE"})
	idx, warnings := Build([][]string{
		{"1", "Alice", "", "100"},
		{"2", "Bob", "", "200"},
	}, sc)

	// Empty links never collide.
	assert.Empty(t, warnings)
	assert.Nil(t, idx.ByLinkedAccount(""))
	assert.Equal(t, 2, idx.Len())
}

func TestBuildShortAndRaggedRows(t *testing.T) {
	sc := testSchema(t, []string{"ID", "NAME", "DiscordID", "DKP SCORE", "NOTES"})
	idx, warnings := Build([][]string{
		{"1", "Alice"}, // missing trailing cells
		{"2", "Bob", "222", "300", "promoted", "spillover"},
	}, sc)

	assert.Empty(t, warnings)

	alice := idx.ByPlayerID("1")
	require.NotNil(t, alice)
	assert.Equal(t, normalize.Missing, alice.Metrics["score"].Value.Type)
	assert.Empty(t, alice.Extras)

	bob := idx.ByPlayerID("2")
	require.NotNil(t, bob)
	assert.Equal(t, "promoted", bob.Extras["NOTES"])
}

func TestBuildTextMetricKeptAsFallback(t *testing.T) {
	sc := testSchema(t, []string{"ID", "DKP SCORE"})
	idx, _ := Build([][]string{{"1", "N/A"}}, sc)

	m := idx.ByPlayerID("1").Metrics["score"]
	assert.Equal(t, normalize.Text, m.Value.Type)
	assert.Equal(t, "N/A", m.Value.Text)
	assert.False(t, m.Value.Comparable())
}

func TestBuildLinkedAccountAsIdentityFallback(t *testing.T) {
	sc := testSchema(t, []string{"Discord ID", "DKP SCORE"})
	idx, warnings := Build([][]string{
		{"user#1", "100"},
		{"", "50"},
	}, sc)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnBlankID, warnings[0].Kind)

	rec := idx.ByLinkedAccount("user#1")
	require.NotNil(t, rec)
	assert.Equal(t, "user#1", rec.PlayerID)
}

func TestAllPreservesInsertionOrder(t *testing.T) {
	sc := testSchema(t, []string{"ID", "DKP SCORE"})
	idx, _ := Build([][]string{
		{"3", "1"}, {"1", "2"}, {"2", "3"},
	}, sc)

	var ids []string
	for _, rec := range idx.All() {
		ids = append(ids, rec.PlayerID)
	}
	assert.Equal(t, []string{"3", "1", "2"}, ids)
}
