// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/claim-ranker/pkg/types"
)

func rankedPosts() []*types.Post {
	return []*types.Post{
		{
			ID:              "1001",
			Text:            "Taxes rose 40%, the mayor said.",
			AuthorID:        "u1",
			PublicMetrics:   types.PublicMetrics{RetweetCount: 30, LikeCount: 100},
			MetricsHydrated: true,
			FactCheckReason: types.String("1,2,5"),
			ImportanceScore: types.Int(8),
			CheckableScore:  types.Int(7),
			ScoringReason:   types.String("specific figure"),
			EngagementScore: types.Float(4.9746),
			FinalScore:      types.Float(7.094),
		},
		{
			ID:              "1002",
			Text:            "Line one\nline two, with \"quotes\"",
			MetricsReason:   "metrics hydration not requested",
			FactCheckReason: types.String("Heuristic: numeric/policy/claim-like language."),
			ImportanceScore: types.Int(0),
			CheckableScore:  types.Int(0),
			ScoringReason:   types.String(""),
			EngagementScore: types.Float(0),
			FinalScore:      types.Float(0),
		},
	}
}

var goldenHeader = []string{
	"id", "text", "post_link", "fact_check_reason", "importance_score", "checkable_score",
	"scoring_reason", "fact_check_questions", "search_keywords", "aids_reason",
	"author_id", "retweet_count", "like_count", "reply_count", "quote_count",
	"metrics_hydrated", "engagement_score", "final_score", "metrics_reason",
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestBuildTableColumnOrder(t *testing.T) {
	table := BuildTable(rankedPosts())
	assert.Equal(t, goldenHeader, table.Columns)
	for _, row := range table.Rows {
		assert.Len(t, row, len(table.Columns))
	}
}

func TestBuildTableOnlyPreferredForBarePosts(t *testing.T) {
	table := BuildTable([]*types.Post{{ID: "1"}})
	// Counts and the hydration flag are always carried.
	assert.Equal(t, append(append([]string{}, Preferred...),
		"retweet_count", "like_count", "reply_count", "quote_count", "metrics_hydrated"), table.Columns)
	assert.Nil(t, table.Rows[0][3], "unset filter reason")
	assert.Nil(t, table.Rows[0][4], "unset importance")
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	path, err := Export(rankedPosts(), types.ExportConfig{Dir: dir, Name: "out.csv"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out.csv"), path)

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, goldenHeader, records[0])
	assert.Equal(t, []string{
		"1001", "Taxes rose 40%, the mayor said.", "https://x.com/i/status/1001", "1,2,5", "8", "7",
		"specific figure", "", "", "",
		"u1", "30", "100", "0", "0", "true", "4.97", "7.09", "",
	}, records[1])
	assert.Equal(t, "Line one\nline two, with \"quotes\"", records[2][1])
	assert.Equal(t, "0", records[2][4])
	assert.Equal(t, "metrics hydration not requested", records[2][18])
}

func TestExportRoundTripIDsAndLinks(t *testing.T) {
	posts := []*types.Post{{ID: "1"}, {ID: "1789000000000000001"}, {ID: ""}, {ID: "42"}}
	path, err := Export(posts, types.ExportConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DefaultName, filepath.Base(path))

	records := readCSV(t, path)
	require.Len(t, records, len(posts)+1)
	for i, p := range posts {
		rec := records[i+1]
		assert.Equal(t, p.ID, rec[0])
		if p.ID == "" {
			assert.Empty(t, rec[2])
			continue
		}
		assert.Equal(t, "https://x.com/i/status/"+p.ID, rec[2])
	}
}

func TestExportEmpty(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"empty.csv", "empty.xlsx", "empty.json"} {
		_, err := Export(nil, types.ExportConfig{Dir: dir, Name: name})
		var ee *EmptyExportError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, filepath.Join(dir, name), ee.Destination)
		assert.NoFileExists(t, filepath.Join(dir, name))
	}
}

func TestExportXLSX(t *testing.T) {
	path, err := Export(rankedPosts(), types.ExportConfig{Dir: t.TempDir(), Name: "ranked.xlsx"})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, goldenHeader, rows[0])
	assert.Equal(t, "1001", rows[1][0])
	assert.Equal(t, "https://x.com/i/status/1001", rows[1][2])
	assert.Equal(t, "8", rows[1][4])
}

func TestExportJSONKeepsColumnOrder(t *testing.T) {
	path, err := Export(rankedPosts(), types.ExportConfig{Dir: t.TempDir(), Name: "ranked.json"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "https://x.com/i/status/1002", decoded[1]["post_link"])
	assert.Equal(t, 7.09, decoded[0]["final_score"])
	assert.Nil(t, decoded[1]["author_id"])

	text := string(data)
	assert.Less(t, strings.Index(text, `"post_link"`), strings.Index(text, `"fact_check_reason"`))
	assert.Less(t, strings.Index(text, `"aids_reason"`), strings.Index(text, `"author_id"`))
}

func TestExportYAML(t *testing.T) {
	path, err := Export(rankedPosts(), types.ExportConfig{Dir: t.TempDir(), Name: "ranked.txt", Format: "yml"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "1001", decoded[0]["id"])
	assert.Equal(t, 8, decoded[0]["importance_score"])
	text := string(data)
	assert.Less(t, strings.Index(text, "id:"), strings.Index(text, "post_link:"))
}

func TestDestination(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.ExportConfig
		want    Format
		wantErr bool
	}{
		{"default", types.ExportConfig{}, FormatCSV, false},
		{"by extension", types.ExportConfig{Name: "a.XLSX"}, FormatXLSX, false},
		{"override", types.ExportConfig{Name: "a.csv", Format: "json"}, FormatJSON, false},
		{"no extension", types.ExportConfig{Name: "ranked"}, FormatCSV, false},
		{"unknown", types.ExportConfig{Name: "a.parquet"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got, err := Destination(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
