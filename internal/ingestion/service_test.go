package ingestion

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rpattn/recordsearch/internal/domain"
	"github.com/rpattn/recordsearch/internal/repository"
)

func TestServiceImportCSV(t *testing.T) {
	repo := repository.NewMemoryRecordRepository()
	service := NewService(repo, nil)

	orgID := uuid.New()
	data := "\xEF\xBB\xBFuuid,shortName,longName\n" +
		orgID.String() + ",EF 1,Planning Directorate\n" +
		",EF 2,Logistics\n"

	summary, err := service.Import(context.Background(), Request{
		EntityType: domain.EntityTypeOrganizations,
		FileName:   "orgs.csv",
		Data:       strings.NewReader(data),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalRows)
	assert.Equal(t, 2, summary.ImportedRows)
	assert.Equal(t, 0, summary.InvalidRows)
	assert.Equal(t, []string{"shortName", "longName"}, summary.Labels)

	record, err := repo.GetByID(context.Background(), orgID)
	require.NoError(t, err)
	assert.Equal(t, domain.EntityTypeOrganizations, record.EntityType)
	assert.Equal(t, "EF 1", record.Labels["shortName"])
	assert.Equal(t, "Planning Directorate", record.Labels["longName"])

	count, err := repo.CountByType(context.Background(), domain.EntityTypeOrganizations)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestServiceImportReportsInvalidRows(t *testing.T) {
	repo := repository.NewMemoryRecordRepository()
	service := NewService(repo, nil)

	data := `entityType,uuid,name,rank
People,,Jack Jackson,CIV
Spaceships,,Enterprise,
People,not-a-uuid,Nick Nicholson,CTR
Tasks,,,
`
	summary, err := service.Import(context.Background(), Request{
		FileName: "mixed.csv",
		Data:     strings.NewReader(data),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalRows)
	assert.Equal(t, 1, summary.ImportedRows)
	assert.Equal(t, 3, summary.InvalidRows)
	require.Len(t, summary.Errors, 3)
	assert.Equal(t, 3, summary.Errors[0].Row)
	assert.Contains(t, summary.Errors[0].Message, "unknown entity type")
	assert.Contains(t, summary.Errors[1].Message, "invalid uuid")
	assert.Contains(t, summary.Errors[2].Message, "no label values")
}

func TestServiceImportRequiresEntityType(t *testing.T) {
	service := NewService(repository.NewMemoryRecordRepository(), nil)

	summary, err := service.Import(context.Background(), Request{
		FileName: "people.csv",
		Data:     strings.NewReader("name\nJack\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.ImportedRows)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "entity type is required", summary.Errors[0].Message)
}

func TestServiceImportXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]string{"Report title"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]string{"shortName", "status"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]string{"Kabul", "ACTIVE"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	repo := repository.NewMemoryRecordRepository()
	service := NewService(repo, nil)
	headerRow := 1

	summary, err := service.Import(context.Background(), Request{
		EntityType:     domain.EntityTypeLocations,
		FileName:       "locations.xlsx",
		HeaderRowIndex: &headerRow,
		Data:           bytes.NewReader(buf.Bytes()),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ImportedRows)
	assert.Equal(t, []string{"shortName", "status"}, summary.Labels)
}

func TestServiceImportUnsupportedFormat(t *testing.T) {
	service := NewService(repository.NewMemoryRecordRepository(), nil)
	_, err := service.Import(context.Background(), Request{
		EntityType: domain.EntityTypePeople,
		FileName:   "people.json",
		Data:       strings.NewReader("[]"),
	})
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestNormalizeTableSkipsLeadingBlankRows(t *testing.T) {
	table, err := normalizeTable([][]string{
		{"", ""},
		{"short name", "short name"},
		{"a"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"short_name", "short_name_2"}, table.headers)
	assert.Equal(t, [][]string{{"a", ""}}, table.rows)
	assert.Equal(t, 1, table.headerRowIndex)
}
