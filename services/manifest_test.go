package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OlsenSM91/arrange-it/models"
)

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte("Team,Photo\nRed Sox,img1.png\nYankees,img2.png\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{ColumnGroup, ColumnFileRef}, m.Header)
	assert.Equal(t, []models.ManifestRow{
		{Line: 2, Group: "Red Sox", FileRef: "img1.png"},
		{Line: 3, Group: "Yankees", FileRef: "img2.png"},
	}, m.Rows)
}

func TestParseManifestHeaderVariants(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"lowercase", "team,photo\nA,a.png\n"},
		{"padded", "  TEAM , Photo  \nA,a.png\n"},
		{"canonical", "Group,FileRef\nA,a.png\n"},
		{"photos", "Team,Photos\nA,a.png\n"},
		{"bom", "\xef\xbb\xbfTeam,Photo\nA,a.png\n"},
		{"semicolon", "Team;Photo\nA;a.png\n"},
		{"tab", "Team\tPhoto\nA\ta.png\n"},
		{"crlf", "Team,Photo\r\nA,a.png\r\n"},
		{"semicolons in quoted header", "\"Notes; a; b; c\",Team,Photo\nx,A,a.png\n"},
		{"commas in quoted header", "\"Notes, a, b, c\";Team;Photo\nx;A;a.png\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseManifest([]byte(tt.data))
			require.NoError(t, err)
			require.Len(t, m.Rows, 1)
			assert.Equal(t, "A", m.Rows[0].Group)
			assert.Equal(t, "a.png", m.Rows[0].FileRef)
		})
	}
}

func TestParseManifestExtraColumns(t *testing.T) {
	m, err := ParseManifest([]byte(" Player ,Photo,Team\nOrtiz,ortiz.jpg,Red Sox\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Player", ColumnFileRef, ColumnGroup}, m.Header)
	assert.Equal(t, 2, m.GroupIndex)
	assert.Equal(t, 1, m.FileRefIndex)
	assert.Equal(t, "Red Sox", m.Rows[0].Group)
	assert.Equal(t, "ortiz.jpg", m.Rows[0].FileRef)
}

func TestParseManifestQuotedFields(t *testing.T) {
	m, err := ParseManifest([]byte("Team,Photo\n\"Sox, Red\",\"a b.png\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "Sox, Red", m.Rows[0].Group)
}

func TestParseManifestMissingColumn(t *testing.T) {
	_, err := ParseManifest([]byte("Team,Image\nRed Sox,img1.png\n"))

	var mce *MissingColumnError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, []string{ColumnFileRef}, mce.Columns)

	_, err = ParseManifest([]byte("Name,Image\nx,y\n"))
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, []string{ColumnGroup, ColumnFileRef}, mce.Columns)
}

func TestParseManifestEmpty(t *testing.T) {
	_, err := ParseManifest(nil)
	var mce *MissingColumnError
	assert.True(t, errors.As(err, &mce))
}

func TestParseManifestHeaderOnly(t *testing.T) {
	m, err := ParseManifest([]byte("Team,Photo\n"))
	require.NoError(t, err)
	assert.Empty(t, m.Rows)
}

func TestParseManifestMalformedRow(t *testing.T) {
	_, err := ParseManifest([]byte("Team,Photo\nRed Sox,img1.png\nYankees\n"))

	var mre *MalformedRowError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, 3, mre.Line)
	assert.Equal(t, 1, mre.Got)
	assert.Equal(t, 2, mre.Want)
}

func TestParseManifestBadQuoting(t *testing.T) {
	_, err := ParseManifest([]byte("Team,Photo\n\"Red Sox,img1.png\nx\"y,z\n"))

	var mre *MalformedRowError
	assert.True(t, errors.As(err, &mre))
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ',', detectDelimiter([]byte("Team,Photo\nA;B;C;D\n")))
	assert.Equal(t, ';', detectDelimiter([]byte("Team;Photo")))
	assert.Equal(t, '\t', detectDelimiter([]byte("Team\tPhoto\n")))
	assert.Equal(t, ',', detectDelimiter([]byte("\"a;b;c\",Team,Photo\n")))
	assert.Equal(t, ',', detectDelimiter([]byte("\"multi\nline;;;\",Team\n")))
	assert.Equal(t, ',', detectDelimiter(nil))
}
