package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/offerscan/internal/core/fields"
	"github.com/joseph-ayodele/offerscan/internal/ingest"
	"github.com/joseph-ayodele/offerscan/internal/session"
)

func state(t *testing.T, recs ...*fields.Record) session.State {
	t.Helper()
	s := session.New(make([]ingest.Document, len(recs)))
	for i, r := range recs {
		if r == nil {
			continue
		}
		var err error
		s, err = s.WithRecord(i, *r)
		require.NoError(t, err)
	}
	return s
}

func TestRenderProjectsStore(t *testing.T) {
	s := state(t, &fields.Record{Name: "Asha", Company: "Acme Inc", Duration: "6 weeks"}, nil)

	var g Grid
	g.Render(s.Records())
	rows := g.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, [3]string{"Asha", "Acme Inc", "6 weeks"}, rows[0].Cells)
	assert.Equal(t, [3]string{"", "", ""}, rows[1].Cells)
	assert.Equal(t, 1, rows[1].Index)
}

func TestEditsStayInGridUntilSave(t *testing.T) {
	s := state(t, &fields.Record{Name: "Not Found", Company: "Acme Inc", Duration: "6 weeks"})

	var g Grid
	g.Render(s.Records())
	require.NoError(t, g.SetCell(0, ColName, "  Asha Rao  "))
	assert.Equal(t, "Not Found", s.Record(0).Name)

	saved, err := g.Save(s)
	require.NoError(t, err)
	assert.Equal(t, fields.Record{Name: "Asha Rao", Company: "Acme Inc", Duration: "6 weeks"}, *saved.Record(0))
}

func TestSaveReplacesWholeRow(t *testing.T) {
	s := state(t, &fields.Record{Name: "A", Company: "B", Duration: "C"})

	var g Grid
	g.Render(s.Records())
	require.NoError(t, g.SetCell(0, ColDuration, "  "))

	// the store changes behind the grid; the grid still wins wholesale
	s, err := s.WithRecord(0, fields.Record{Name: "new", Company: "new", Duration: "new"})
	require.NoError(t, err)

	saved, err := g.Save(s)
	require.NoError(t, err)
	assert.Equal(t, fields.Record{Name: "A", Company: "B", Duration: ""}, *saved.Record(0))
}

func TestSaveKeepsUntouchedAbsentRows(t *testing.T) {
	s := state(t, nil, nil)

	var g Grid
	g.Render(s.Records())
	require.NoError(t, g.SetCell(1, ColCompany, "Zeta Labs"))

	saved, err := g.Save(s)
	require.NoError(t, err)
	assert.Nil(t, saved.Record(0))
	require.NotNil(t, saved.Record(1))
	assert.Equal(t, "Zeta Labs", saved.Record(1).Company)
	assert.Equal(t, saved.Len(), len(saved.Records()))
}

func TestSetCellBounds(t *testing.T) {
	var g Grid
	g.Render([]*fields.Record{nil})
	assert.Error(t, g.SetCell(1, ColName, "x"))
	assert.Error(t, g.SetCell(0, 3, "x"))
	assert.Error(t, g.SetCell(-1, ColName, "x"))
}

func TestParseColumn(t *testing.T) {
	col, err := ParseColumn("company")
	require.NoError(t, err)
	assert.Equal(t, ColCompany, col)

	_, err = ParseColumn("salary")
	assert.Error(t, err)
}
