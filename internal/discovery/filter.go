package discovery

import (
	"strings"

	"github.com/alejandrodnm/pairscout/internal/domain"
)

// Filter aplica un perfil de criterios sobre una lista de candidatos.
type Filter struct {
	profile domain.CriteriaProfile
}

// NewFilter crea un Filter con el perfil dado.
func NewFilter(profile domain.CriteriaProfile) *Filter {
	return &Filter{profile: profile}
}

// Apply devuelve los candidatos que pasan el perfil, en el mismo orden.
func (f *Filter) Apply(candidates []domain.Candidate) []domain.Candidate {
	result := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if Matches(c, f.profile) {
			result = append(result, c)
		}
	}
	return result
}

// Matches indica si c pasa el perfil p. Es pura: la edad se mide en ObservedAt.
//
// Reglas:
//   - umbral en cero = sin restricción
//   - comparaciones inclusivas (>= mínimos, <= máximos)
//   - edad desconocida se rechaza si el perfil pide MaxAgeHours
//   - market cap en cero se considera "no informado" y no se evalúa
func Matches(c domain.Candidate, p domain.CriteriaProfile) bool {
	if len(p.Chains) > 0 && !chainAllowed(c.ChainID, p.Chains) {
		return false
	}
	if p.MaxAgeHours > 0 {
		age, known := c.AgeHours(c.ObservedAt)
		if !known || age > p.MaxAgeHours {
			return false
		}
	}
	if p.MinLiquidityUSD > 0 && c.LiquidityUSD < p.MinLiquidityUSD {
		return false
	}
	if p.MinVolume24hUSD > 0 && c.Volume24hUSD < p.MinVolume24hUSD {
		return false
	}
	if p.MinVolumeSpikePct > 0 && c.VolumeSpikePct() < p.MinVolumeSpikePct {
		return false
	}
	if c.MarketCapUSD > 0 {
		if p.MarketCapMin > 0 && c.MarketCapUSD < p.MarketCapMin {
			return false
		}
		if p.MarketCapMax > 0 && c.MarketCapUSD > p.MarketCapMax {
			return false
		}
	}
	return true
}

func chainAllowed(chain string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(chain, a) {
			return true
		}
	}
	return false
}
