package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRows(t *testing.T, rows <-chan []string, errs <-chan error) [][]string {
	t.Helper()
	var out [][]string
	for row := range rows {
		out = append(out, row)
	}
	for err := range errs {
		require.NoError(t, err)
	}
	return out
}

func TestStreamCSV(t *testing.T) {
	input := "name,country\nPetra,Jordan\nTaj Mahal,India\n"
	headerCh := make(chan []string, 1)

	rows, errs := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})

	got := collectRows(t, rows, errs)
	assert.Equal(t, [][]string{{"Petra", "Jordan"}, {"Taj Mahal", "India"}}, got)

	header, ok := <-headerCh
	require.True(t, ok)
	assert.Equal(t, []string{"name", "country"}, header)
}

func TestStreamCSVEmptyInput(t *testing.T) {
	headerCh := make(chan []string, 1)
	rows, errs := StreamCSV(context.Background(), strings.NewReader(""), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})

	got := collectRows(t, rows, errs)
	assert.Empty(t, got)

	// No header row: the channel closes without a send.
	_, ok := <-headerCh
	assert.False(t, ok)
}

func TestStreamCSVTrimSpace(t *testing.T) {
	input := " a , b \n"
	rows, errs := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{TrimSpace: true})
	got := collectRows(t, rows, errs)
	assert.Equal(t, [][]string{{"a", "b"}}, got)
}

func TestStreamCSVVariableFields(t *testing.T) {
	input := "a,b,c\nx,y\n"
	rows, errs := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	got := collectRows(t, rows, errs)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"x", "y"}}, got)
}
