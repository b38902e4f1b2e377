package pipeline

import (
	"testing"

	"github.com/opendata-pt/indicator-hub/models"
	"github.com/stretchr/testify/assert"
)

func TestResolveDicofre(t *testing.T) {
	resolver := newTestResolver(t)

	t.Run("six digits resolve the full hierarchy", func(t *testing.T) {
		res := resolver.Resolve("110601", models.GeocodeTypeDicofre)
		assert.Equal(t, "Lisboa", res.Distrito)
		assert.Equal(t, "Lisboa", res.Concelho)
		assert.Equal(t, "Alvalade", res.Freguesia)
		assert.Equal(t, "Continente", res.Nuts1)
		assert.Equal(t, "Área Metropolitana de Lisboa", res.Nuts2)
		assert.Equal(t, "Grande Lisboa", res.Nuts3)
	})

	t.Run("four digits resolve district and municipality", func(t *testing.T) {
		res := resolver.Resolve("1106", models.GeocodeTypeDicofre)
		assert.Equal(t, "Lisboa", res.Distrito)
		assert.Equal(t, "Lisboa", res.Concelho)
		assert.Equal(t, models.UndefinedGeo, res.Freguesia)
		assert.Equal(t, "Grande Lisboa", res.Nuts3)
	})

	t.Run("two digits resolve district only", func(t *testing.T) {
		res := resolver.Resolve("13", models.GeocodeTypeDicofre)
		assert.Equal(t, "Porto", res.Distrito)
		assert.Equal(t, models.UndefinedGeo, res.Concelho)
		assert.Equal(t, models.UndefinedGeo, res.Freguesia)
		// No municipality, so NUTS falls back to the digit-range table.
		assert.Equal(t, Nuts1Continental, res.Nuts1)
		assert.Equal(t, models.UndefinedGeo, res.Nuts2)
	})

	t.Run("unknown exact code falls through to prefix layers", func(t *testing.T) {
		res := resolver.Resolve("110699", models.GeocodeTypeDicofre)
		assert.Equal(t, "Lisboa", res.Distrito)
		assert.Equal(t, "Lisboa", res.Concelho)
		assert.Equal(t, models.UndefinedGeo, res.Freguesia)
	})

	t.Run("madeira digit range", func(t *testing.T) {
		res := resolver.Resolve("39", models.GeocodeTypeDicofre)
		assert.Equal(t, models.UndefinedGeo, res.Distrito)
		assert.Equal(t, models.UndefinedGeo, res.Nuts1)

		res = resolver.Resolve("32", models.GeocodeTypeDicofre)
		assert.Equal(t, Nuts1Madeira, res.Nuts1)
	})

	t.Run("acores digit range", func(t *testing.T) {
		res := resolver.Resolve("45", models.GeocodeTypeDicofre)
		assert.Equal(t, Nuts1Acores, res.Nuts1)
	})
}

func TestResolveZipcode(t *testing.T) {
	resolver := newTestResolver(t)

	t.Run("four digits resolve district and municipality", func(t *testing.T) {
		res := resolver.Resolve("1000", models.GeocodeTypeZipcode)
		assert.Equal(t, "Lisboa", res.Distrito)
		assert.Equal(t, "Lisboa", res.Concelho)
		assert.Equal(t, models.UndefinedGeo, res.Freguesia)
		assert.Equal(t, "Grande Lisboa", res.Nuts3)
	})

	t.Run("formatted full code resolves exactly", func(t *testing.T) {
		res := resolver.Resolve("1000-001", models.GeocodeTypeZipcode)
		assert.Equal(t, "Avenidas Novas", res.Freguesia)
		assert.Equal(t, "Continente", res.Nuts1)
	})

	t.Run("seven digits without exact hit fall back to prefix", func(t *testing.T) {
		res := resolver.Resolve("1700-111", models.GeocodeTypeZipcode)
		assert.Equal(t, "Lisboa", res.Distrito)
		assert.Equal(t, "Marvila", res.Freguesia)
	})

	t.Run("seven digits with no match at all use the digit range", func(t *testing.T) {
		res := resolver.Resolve("1000-003", models.GeocodeTypeZipcode)
		assert.Equal(t, models.UndefinedGeo, res.Distrito)
		assert.Equal(t, Nuts1Continental, res.Nuts1)
	})

	t.Run("islands resolve through the nuts tree", func(t *testing.T) {
		res := resolver.Resolve("9500-321", models.GeocodeTypeZipcode)
		assert.Equal(t, "Ponta Delgada", res.Concelho)
		assert.Equal(t, "Região Autónoma dos Açores", res.Nuts1)
	})

	t.Run("unresolvable overseas prefix", func(t *testing.T) {
		res := resolver.Resolve("97", models.GeocodeTypeZipcode)
		assert.Equal(t, models.UndefinedGeo, res.Distrito)
		assert.Equal(t, Nuts1Acores, res.Nuts1)
	})

	t.Run("single digit nine is overseas", func(t *testing.T) {
		res := resolver.Resolve("9", models.GeocodeTypeZipcode)
		assert.Equal(t, Nuts1Overseas, res.Nuts1)
	})

	t.Run("single continental digit", func(t *testing.T) {
		res := resolver.Resolve("4", models.GeocodeTypeZipcode)
		assert.Equal(t, Nuts1Continental, res.Nuts1)
	})
}

func TestResolveIsTotal(t *testing.T) {
	resolver := newTestResolver(t)
	undefined := UndefinedResolution()

	inputs := []struct {
		geocode string
		kind    string
	}{
		{"", models.GeocodeTypeZipcode},
		{"", models.GeocodeTypeDicofre},
		{"abc", models.GeocodeTypeZipcode},
		{"!!!", models.GeocodeTypeDicofre},
		{"110601", "unknown-kind"},
		{"0", models.GeocodeTypeDicofre},
	}
	for _, input := range inputs {
		res := resolver.Resolve(input.geocode, input.kind)
		assert.Equal(t, undefined, res, "geocode=%q kind=%q", input.geocode, input.kind)
	}
}

func TestCountryResolution(t *testing.T) {
	res := CountryResolution()
	assert.Equal(t, Nuts1Country, res.Nuts1)
	assert.Equal(t, models.UndefinedGeo, res.Distrito)
	assert.Equal(t, models.UndefinedGeo, res.Nuts3)
}
