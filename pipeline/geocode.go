package pipeline

import (
	"fmt"
	"regexp"

	"github.com/opendata-pt/indicator-hub/models"
	"github.com/opendata-pt/indicator-hub/refdata"
)

// NUTS1 names emitted by the digit-range fallback for codes whose
// municipality could not be resolved.
const (
	Nuts1Continental = "Continental Portugal"
	Nuts1Madeira     = "Região Autónoma da Madeira"
	Nuts1Acores      = "Região Autónoma dos Açores"
	Nuts1Overseas    = "Overseas Portugal"
	// Nuts1Country marks country-level series with no sub-national geography.
	Nuts1Country = "Portugal (all)"
)

// Digit-range tables for the NUTS1 fallback. The postal and administrative
// code spaces differ; both tables are carried separately.
var (
	continentalDicofre = digitRange(1, 18)
	madeiraDicofre     = map[string]bool{"31": true, "32": true}
	acoresDicofre      = digitRange(41, 49)

	madeiraZipcode = digitRange(90, 94)
	acoresZipcode  = digitRange(95, 99)
)

var nonDigits = regexp.MustCompile(`[^0-9]`)

// GeoResolution is the full 6-tuple a geocode resolves to. Every field is
// either a real value or the "undefined" sentinel; resolution is total and
// never errors.
type GeoResolution struct {
	Distrito  string
	Concelho  string
	Freguesia string
	Nuts1     string
	Nuts2     string
	Nuts3     string
}

// UndefinedResolution returns a resolution with every field set to the
// sentinel.
func UndefinedResolution() GeoResolution {
	return GeoResolution{
		Distrito:  models.UndefinedGeo,
		Concelho:  models.UndefinedGeo,
		Freguesia: models.UndefinedGeo,
		Nuts1:     models.UndefinedGeo,
		Nuts2:     models.UndefinedGeo,
		Nuts3:     models.UndefinedGeo,
	}
}

// CountryResolution returns the sentinel resolution for country-level series.
func CountryResolution() GeoResolution {
	res := UndefinedResolution()
	res.Nuts1 = Nuts1Country
	return res
}

// geoLayer attempts one resolution strategy against a cleaned digit code.
type geoLayer func(code string) (refdata.Location, bool)

// GeoResolver maps location keys (postal or administrative codes) to the
// normalized local and statistical hierarchies using the three reference
// tables. Layers are tried exact first, then prefix, then digit-range;
// first success wins.
type GeoResolver struct {
	dicofre  *refdata.DicofreTable
	zipcodes *refdata.ZipcodeTable
	nuts     refdata.NutsTree
}

// NewGeoResolver builds a resolver over the loaded reference tables.
func NewGeoResolver(dicofre *refdata.DicofreTable, zipcodes *refdata.ZipcodeTable, nuts refdata.NutsTree) *GeoResolver {
	return &GeoResolver{dicofre: dicofre, zipcodes: zipcodes, nuts: nuts}
}

// Resolve maps a raw location key of the given kind to the full 6-tuple.
// Unresolvable inputs, including empty and malformed codes, bottom out at
// the sentinel; no branch errors.
func (g *GeoResolver) Resolve(geocode, geocodeType string) GeoResolution {
	res := UndefinedResolution()

	code := nonDigits.ReplaceAllString(geocode, "")
	if code == "" {
		return res
	}

	var loc refdata.Location
	var ok bool
	switch geocodeType {
	case models.GeocodeTypeDicofre:
		loc, ok = resolveFirst(code, g.dicofreExact, g.dicofrePrefix4, g.dicofrePrefix2)
	case models.GeocodeTypeZipcode:
		loc, ok = resolveFirst(code, g.zipcodeShort, g.zipcodeExact, g.zipcodePrefix)
	default:
		return res
	}

	if ok {
		res.Distrito = defaulted(loc.Distrito)
		res.Concelho = defaulted(loc.Concelho)
		res.Freguesia = defaulted(loc.Freguesia)
	}

	if res.Concelho != models.UndefinedGeo {
		if n1, n2, n3, found := g.nuts.ByMunicipality(res.Concelho); found {
			res.Nuts1 = n1
			res.Nuts2 = defaulted(n2)
			res.Nuts3 = defaulted(n3)
			return res
		}
	}

	// Municipality unresolved: infer the country region from the code's
	// leading digits, leaving NUTS2/NUTS3 undefined.
	switch geocodeType {
	case models.GeocodeTypeDicofre:
		res.Nuts1 = nuts1FromDicofre(code)
	case models.GeocodeTypeZipcode:
		res.Nuts1 = nuts1FromZipcode(code)
	}
	return res
}

// resolveFirst composes layers with first-success-wins short-circuiting.
func resolveFirst(code string, layers ...geoLayer) (refdata.Location, bool) {
	for _, layer := range layers {
		if loc, ok := layer(code); ok {
			return loc, true
		}
	}
	return refdata.Location{}, false
}

// dicofreExact resolves district, municipality and parish from a full code.
func (g *GeoResolver) dicofreExact(code string) (refdata.Location, bool) {
	if len(code) < 6 {
		return refdata.Location{}, false
	}
	return g.dicofre.Exact(code)
}

// dicofrePrefix4 resolves district and municipality only.
func (g *GeoResolver) dicofrePrefix4(code string) (refdata.Location, bool) {
	if len(code) < 4 {
		return refdata.Location{}, false
	}
	loc, ok := g.dicofre.ByPrefix(code[:4])
	if !ok {
		return refdata.Location{}, false
	}
	loc.Freguesia = ""
	return loc, true
}

// dicofrePrefix2 resolves district only.
func (g *GeoResolver) dicofrePrefix2(code string) (refdata.Location, bool) {
	if len(code) < 2 {
		return refdata.Location{}, false
	}
	loc, ok := g.dicofre.ByPrefix(code[:2])
	if !ok {
		return refdata.Location{}, false
	}
	loc.Concelho = ""
	loc.Freguesia = ""
	return loc, true
}

// zipcodeShort resolves district and municipality from a 4-digit postal code.
func (g *GeoResolver) zipcodeShort(code string) (refdata.Location, bool) {
	if len(code) != 4 {
		return refdata.Location{}, false
	}
	loc, ok := g.zipcodes.ByPrefix(code)
	if !ok {
		return refdata.Location{}, false
	}
	loc.Freguesia = ""
	return loc, true
}

// zipcodeExact resolves the full hierarchy from a complete postal code.
func (g *GeoResolver) zipcodeExact(code string) (refdata.Location, bool) {
	if len(code) < 7 {
		return refdata.Location{}, false
	}
	return g.zipcodes.Exact(code)
}

// zipcodePrefix is the fallback when a complete postal code has no exact hit.
func (g *GeoResolver) zipcodePrefix(code string) (refdata.Location, bool) {
	if len(code) < 7 {
		return refdata.Location{}, false
	}
	return g.zipcodes.ByPrefix(code)
}

func nuts1FromDicofre(code string) string {
	if len(code) < 2 {
		return models.UndefinedGeo
	}
	prefix := code[:2]
	switch {
	case continentalDicofre[prefix]:
		return Nuts1Continental
	case madeiraDicofre[prefix]:
		return Nuts1Madeira
	case acoresDicofre[prefix]:
		return Nuts1Acores
	}
	return models.UndefinedGeo
}

func nuts1FromZipcode(code string) string {
	if len(code) >= 2 {
		prefix := code[:2]
		switch {
		case prefix[0] >= '1' && prefix[0] <= '8':
			return Nuts1Continental
		case madeiraZipcode[prefix]:
			return Nuts1Madeira
		case acoresZipcode[prefix]:
			return Nuts1Acores
		}
		return models.UndefinedGeo
	}
	switch {
	case code[0] >= '1' && code[0] <= '8':
		return Nuts1Continental
	case code[0] == '9':
		// A lone leading 9 cannot distinguish Madeira from the Azores.
		return Nuts1Overseas
	}
	return models.UndefinedGeo
}

func defaulted(v string) string {
	if v == "" {
		return models.UndefinedGeo
	}
	return v
}

func digitRange(lo, hi int) map[string]bool {
	set := make(map[string]bool, hi-lo+1)
	for i := lo; i <= hi; i++ {
		set[fmt.Sprintf("%02d", i)] = true
	}
	return set
}
