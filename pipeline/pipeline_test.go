package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opendata-pt/indicator-hub/refdata"
	"github.com/stretchr/testify/require"
)

const testDicofreJSON = `{
  "data": [
    {"dicofre": "110601", "distrito": "Lisboa", "concelho": "Lisboa", "freguesia": "Alvalade"},
    {"dicofre": "110659", "distrito": "Lisboa", "concelho": "Lisboa", "freguesia": "Santo António"},
    {"dicofre": "131201", "distrito": "Porto", "concelho": "Porto", "freguesia": "Bonfim"},
    {"dicofre": "310101", "distrito": "Madeira", "concelho": "Calheta", "freguesia": "Arco da Calheta"}
  ]
}`

const testZipcodesCSV = "ZipCode;ZipNoFormat;Distrito;Concelho;Freguesia\n" +
	"1000-001;1000001;Lisboa;Lisboa;Avenidas Novas\n" +
	"1000-002;1000002;Lisboa;Lisboa;Avenidas Novas\n" +
	"4000-007;4000007;Porto;Porto;Cedofeita\n" +
	"1700-111;17001112;Lisboa;Lisboa;Marvila\n" +
	"9500-321;9500321;Ilha de São Miguel;Ponta Delgada;São José\n"

const testNutsJSON = `{
  "Continente": {
    "NUTS 2": {
      "Área Metropolitana de Lisboa": {
        "NUTS 3": {
          "Grande Lisboa": {"Municipalities": ["Lisboa", "Amadora", "Odivelas"]}
        }
      },
      "Norte": {
        "NUTS 3": {
          "Área Metropolitana do Porto": {"Municipalities": ["Porto", "Vila Nova de Gaia"]}
        }
      }
    }
  },
  "Região Autónoma dos Açores": {
    "NUTS 2": {
      "Região Autónoma dos Açores": {
        "NUTS 3": {
          "Região Autónoma dos Açores": {"Municipalities": ["Ponta Delgada"]}
        }
      }
    }
  }
}`

// newTestResolver loads the reference fixtures from temp files and builds a
// resolver over them.
func newTestResolver(t *testing.T) *GeoResolver {
	t.Helper()
	dir := t.TempDir()

	dicofrePath := filepath.Join(dir, "dicofre.json")
	require.NoError(t, os.WriteFile(dicofrePath, []byte(testDicofreJSON), 0o644))
	zipPath := filepath.Join(dir, "zipcodes.csv")
	require.NoError(t, os.WriteFile(zipPath, []byte(testZipcodesCSV), 0o644))
	nutsPath := filepath.Join(dir, "NUTS.json")
	require.NoError(t, os.WriteFile(nutsPath, []byte(testNutsJSON), 0o644))

	dicofre, err := refdata.LoadDicofre(dicofrePath)
	require.NoError(t, err)
	zipcodes, err := refdata.LoadZipcodes(zipPath)
	require.NoError(t, err)
	nuts, err := refdata.LoadNuts(nutsPath)
	require.NoError(t, err)

	return NewGeoResolver(dicofre, zipcodes, nuts)
}

// writeFile writes one file under dir, creating parents.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// eredesTestConfig mirrors the E-REDES source mapping used across the
// pipeline tests.
func eredesTestConfig() *SourceConfig {
	return &SourceConfig{
		Name:      "E-REDES",
		Code:      "eredes",
		Delimiter: ";",
		Metadata: MetadataConfig{
			File:      "metadata.csv",
			Delimiter: ",",
			KeyColumn: 2,
		},
		Timecode: TimecodeAliases{
			Date:     []string{"Date"},
			Year:     []string{"Year", "ANO", "ano"},
			Month:    []string{"Month", "mes"},
			Semester: []string{"Semester"},
			Quarter:  []string{"Quarter"},
		},
		Geo: GeoColumns{
			Zipcode: []string{"Zip Code", "ZipCode"},
			Dicofre: []string{"DistrictMunicipalityParishCode", "CodDistritoConcelhoFreguesia"},
		},
		Mapping: ColumnMapping{
			Name:        "title",
			Description: "description",
			Source:      "Publisher",
			SourceCode:  "src_code",
			Value:       []string{"Active Energy (kWh)", "Number of installations"},
		},
		KnownUnits: []UnitRule{
			{Match: "kWh", Units: "kilowatt-hour"},
			{Match: "Number", Units: "number of installations or locations"},
			{Match: "W", Units: "watts"},
		},
	}
}
