// Package refdata loads the static geographic reference datasets used by the
// geo resolver: the dicofre administrative-code table, the postal-code table
// and the NUTS hierarchy tree.
package refdata

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Location is one resolved local administrative hierarchy entry.
type Location struct {
	Distrito  string
	Concelho  string
	Freguesia string
}

// DicofreTable maps administrative (dicofre) codes to locations. Prefix scans
// run over keys in sorted order so prefix resolution is deterministic.
type DicofreTable struct {
	entries map[string]Location
	keys    []string
}

type dicofreFile struct {
	Data []struct {
		Dicofre   string `json:"dicofre"`
		Distrito  string `json:"distrito"`
		Concelho  string `json:"concelho"`
		Freguesia string `json:"freguesia"`
	} `json:"data"`
}

// LoadDicofre reads the dicofre reference JSON file.
func LoadDicofre(path string) (*DicofreTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dicofre file: %w", err)
	}

	var parsed dicofreFile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse dicofre file %s: %w", path, err)
	}

	t := &DicofreTable{entries: make(map[string]Location, len(parsed.Data))}
	for _, item := range parsed.Data {
		t.entries[item.Dicofre] = Location{
			Distrito:  item.Distrito,
			Concelho:  item.Concelho,
			Freguesia: item.Freguesia,
		}
	}
	t.keys = sortedKeys(t.entries)
	return t, nil
}

// Exact returns the location for an exact code match.
func (t *DicofreTable) Exact(code string) (Location, bool) {
	loc, ok := t.entries[code]
	return loc, ok
}

// ByPrefix returns the location of the first code starting with prefix,
// scanning codes in sorted order.
func (t *DicofreTable) ByPrefix(prefix string) (Location, bool) {
	for _, key := range t.keys {
		if strings.HasPrefix(key, prefix) {
			return t.entries[key], true
		}
	}
	return Location{}, false
}

// Len returns the number of loaded codes.
func (t *DicofreTable) Len() int { return len(t.entries) }

// ZipcodeTable maps postal codes to locations. Lookups key on the
// "no separator" digit form (ZipNoFormat); prefix scans run in sorted order.
type ZipcodeTable struct {
	entries map[string]Location
	keys    []string
}

// LoadZipcodes reads the semicolon-delimited postal code reference CSV.
// Expected columns: ZipCode;ZipNoFormat;Distrito;Concelho;Freguesia.
func LoadZipcodes(path string) (*ZipcodeTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zipcode file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse zipcode file %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("zipcode file %s is empty", path)
	}

	cols := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		cols[cleanHeader(header)] = i
	}
	for _, required := range []string{"ZipNoFormat", "Distrito", "Concelho", "Freguesia"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("zipcode file %s is missing column %s", path, required)
		}
	}

	t := &ZipcodeTable{entries: make(map[string]Location, len(rows)-1)}
	for _, row := range rows[1:] {
		key := strings.TrimSpace(row[cols["ZipNoFormat"]])
		if key == "" {
			continue
		}
		t.entries[key] = Location{
			Distrito:  strings.TrimSpace(row[cols["Distrito"]]),
			Concelho:  strings.TrimSpace(row[cols["Concelho"]]),
			Freguesia: strings.TrimSpace(row[cols["Freguesia"]]),
		}
	}
	t.keys = sortedKeys(t.entries)
	return t, nil
}

// Exact returns the location for an exact digit-form match.
func (t *ZipcodeTable) Exact(digits string) (Location, bool) {
	loc, ok := t.entries[digits]
	return loc, ok
}

// ByPrefix returns the location of the first digit-form code starting with
// prefix, scanning codes in sorted order.
func (t *ZipcodeTable) ByPrefix(prefix string) (Location, bool) {
	for _, key := range t.keys {
		if strings.HasPrefix(key, prefix) {
			return t.entries[key], true
		}
	}
	return Location{}, false
}

// Len returns the number of loaded postal codes.
func (t *ZipcodeTable) Len() int { return len(t.entries) }

// NutsTree is the 3-level statistical region hierarchy:
// NUTS1 region -> NUTS2 subregion -> NUTS3 area -> municipality list.
type NutsTree map[string]Nuts1Region

type Nuts1Region struct {
	Nuts2 map[string]Nuts2Region `json:"NUTS 2"`
}

type Nuts2Region struct {
	Nuts3 map[string]Nuts3Region `json:"NUTS 3"`
}

type Nuts3Region struct {
	Municipalities []string `json:"Municipalities"`
}

// LoadNuts reads the nested NUTS hierarchy JSON file.
func LoadNuts(path string) (NutsTree, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read NUTS file: %w", err)
	}

	var tree NutsTree
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse NUTS file %s: %w", path, err)
	}
	return tree, nil
}

// ByMunicipality depth-first searches the tree for the NUTS3 area whose
// municipality list contains the given name; the first containing branch
// wins (branches are visited in sorted key order). A name matching a NUTS2
// subregion directly resolves with an empty NUTS3.
func (t NutsTree) ByMunicipality(name string) (nuts1, nuts2, nuts3 string, ok bool) {
	for _, n1 := range sortedKeys(t) {
		region := t[n1]
		for _, n2 := range sortedKeys(region.Nuts2) {
			sub := region.Nuts2[n2]
			for _, n3 := range sortedKeys(sub.Nuts3) {
				for _, municipality := range sub.Nuts3[n3].Municipalities {
					if municipality == name {
						return n1, n2, n3, true
					}
				}
			}
			if n2 == name {
				return n1, n2, "", true
			}
		}
	}
	return "", "", "", false
}

func cleanHeader(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(header), "\uFEFF"))
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
