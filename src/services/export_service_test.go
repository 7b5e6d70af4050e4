package services

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skythrill256/yield-ranker-sub001/src/models"
	"github.com/Skythrill256/yield-ranker-sub001/src/processors"
)

func TestWriteRankingCSV(t *testing.T) {
	result := processors.Rank([]models.RankInput{
		{Ticker: "AAA", Name: "=HYPERLINK(\"x\")", Category: models.CategoryETF, Yield: models.FloatOf(7.1)},
		{Ticker: "BBB", Name: "Plain, Fund", Category: models.CategoryETF},
	}, models.RankingWeights{Yield: 100, Timeframe: models.Timeframe12Mo})

	var buf bytes.Buffer
	require.NoError(t, WriteRankingCSV(&buf, &result))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, rankingCSVHeader, rows[0])

	first := rows[1]
	assert.Equal(t, "1", first[0])
	assert.Equal(t, "AAA", first[1])
	assert.Equal(t, "'=HYPERLINK(\"x\")", first[2])
	assert.Equal(t, "7.1000", first[4])
	assert.Equal(t, "1", first[8])
	assert.Equal(t, "", first[9], "unweighted criterion has no rank")

	second := rows[2]
	assert.Equal(t, "Plain, Fund", second[2])
	assert.Equal(t, "", second[4])
	assert.Equal(t, "2", second[8])
}
