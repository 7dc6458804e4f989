package analysis

import (
	"bytes"
	"errors"
	"testing"

	"git-analyse/types"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestAggregatePreservesOrder(t *testing.T) {
	results := []types.AnalysisResult{
		{ChunkIndex: 0, Text: "first"},
		{ChunkIndex: 1, Err: errors.New("boom")},
		{ChunkIndex: 2, Text: "third"},
	}
	fileTypes := map[string]struct{}{"rs": {}, "go": {}, "zip": {}}

	report := Aggregate("run-1", testTarget(), fileTypes, results)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, []string{"go", "rs", "zip"}, report.FileTypes)
	assert.Equal(t, results, report.Results)
	assert.Equal(t, 1, report.Failed())
}

func TestRender(t *testing.T) {
	color.NoColor = true

	report := Aggregate("run-1", testTarget(), map[string]struct{}{"go": {}}, []types.AnalysisResult{
		{ChunkIndex: 0, Text: "looks fine"},
		{ChunkIndex: 1, Err: errors.New("remote analysis failed: quota")},
	})

	var buf bytes.Buffer
	Render(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "Detected Technology Stack: [go]")
	assert.Contains(t, out, "Part 1 of 2:\nlooks fine")
	assert.Contains(t, out, "Part 2 of 2: FAILED: remote analysis failed: quota")
	assert.Contains(t, out, "1 of 2 parts failed")
}

func TestRenderEmpty(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	Render(&buf, Aggregate("run-1", testTarget(), map[string]struct{}{}, nil))
	assert.Contains(t, buf.String(), "nothing was analyzed")
}
