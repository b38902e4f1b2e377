package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dicofreJSON = `{
  "data": [
    {"dicofre": "110601", "distrito": "Lisboa", "concelho": "Lisboa", "freguesia": "Alvalade"},
    {"dicofre": "110625", "distrito": "Lisboa", "concelho": "Lisboa", "freguesia": "Santo António"},
    {"dicofre": "130101", "distrito": "Porto", "concelho": "Amarante", "freguesia": "Ansiães"}
  ]
}`

const zipcodesCSV = "\uFEFFZipCode;ZipNoFormat;Distrito;Concelho;Freguesia\n" +
	"1000-001;1000001;Lisboa;Lisboa;Avenidas Novas\n" +
	"1000-002;1000002;Lisboa;Lisboa;Avenidas Novas\n" +
	"4000-007;4000007;Porto;Porto;Cedofeita\n"

const nutsJSON = `{
  "Continente": {
    "NUTS 2": {
      "Área Metropolitana de Lisboa": {
        "NUTS 3": {
          "Grande Lisboa": {"Municipalities": ["Lisboa", "Amadora"]}
        }
      },
      "Norte": {
        "NUTS 3": {
          "Área Metropolitana do Porto": {"Municipalities": ["Porto", "Gaia"]}
        }
      }
    }
  }
}`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDicofre(t *testing.T) {
	table, err := LoadDicofre(writeTempFile(t, "dicofre.json", dicofreJSON))
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	loc, ok := table.Exact("110601")
	require.True(t, ok)
	assert.Equal(t, "Lisboa", loc.Distrito)
	assert.Equal(t, "Alvalade", loc.Freguesia)

	_, ok = table.Exact("999999")
	assert.False(t, ok)
}

func TestDicofreByPrefixIsDeterministic(t *testing.T) {
	table, err := LoadDicofre(writeTempFile(t, "dicofre.json", dicofreJSON))
	require.NoError(t, err)

	// Two codes share the 1106 prefix; the sorted scan must always pick the
	// lowest one.
	loc, ok := table.ByPrefix("1106")
	require.True(t, ok)
	assert.Equal(t, "Alvalade", loc.Freguesia)

	loc, ok = table.ByPrefix("13")
	require.True(t, ok)
	assert.Equal(t, "Porto", loc.Distrito)

	_, ok = table.ByPrefix("99")
	assert.False(t, ok)
}

func TestLoadZipcodes(t *testing.T) {
	table, err := LoadZipcodes(writeTempFile(t, "zipcodes.csv", zipcodesCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	loc, ok := table.Exact("1000001")
	require.True(t, ok)
	assert.Equal(t, "Avenidas Novas", loc.Freguesia)

	loc, ok = table.ByPrefix("4000")
	require.True(t, ok)
	assert.Equal(t, "Porto", loc.Distrito)
}

func TestLoadZipcodesMissingColumn(t *testing.T) {
	path := writeTempFile(t, "zipcodes.csv", "ZipCode;Distrito\n1000-001;Lisboa\n")
	_, err := LoadZipcodes(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ZipNoFormat")
}

func TestNutsByMunicipality(t *testing.T) {
	tree, err := LoadNuts(writeTempFile(t, "NUTS.json", nutsJSON))
	require.NoError(t, err)

	nuts1, nuts2, nuts3, ok := tree.ByMunicipality("Lisboa")
	require.True(t, ok)
	assert.Equal(t, "Continente", nuts1)
	assert.Equal(t, "Área Metropolitana de Lisboa", nuts2)
	assert.Equal(t, "Grande Lisboa", nuts3)

	// A NUTS2 subregion name resolves with an empty NUTS3.
	nuts1, nuts2, nuts3, ok = tree.ByMunicipality("Norte")
	require.True(t, ok)
	assert.Equal(t, "Continente", nuts1)
	assert.Equal(t, "Norte", nuts2)
	assert.Empty(t, nuts3)

	_, _, _, ok = tree.ByMunicipality("Atlantis")
	assert.False(t, ok)
}
