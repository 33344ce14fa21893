package domain

import (
	"fmt"
	"sort"
)

// CriteriaProfile es un conjunto inmutable y con nombre de umbrales de filtrado.
// Un umbral en cero significa "sin restricción".
type CriteriaProfile struct {
	Name              string   `yaml:"name"`
	MaxAgeHours       float64  `yaml:"max_age_hours"`
	MinLiquidityUSD   float64  `yaml:"min_liquidity_usd"`
	MinVolume24hUSD   float64  `yaml:"min_volume_24h_usd"`
	MinVolumeSpikePct float64  `yaml:"min_volume_spike_pct"`
	MarketCapMin      float64  `yaml:"market_cap_min"`
	MarketCapMax      float64  `yaml:"market_cap_max"`
	Chains            []string `yaml:"chains"` // vacío = cualquier chain
}

// Nombres de los perfiles incluidos.
const (
	ProfileGem        = "gem"
	ProfileDiscovery  = "discovery"
	ProfileAlpha      = "alpha"
	ProfileUltraFresh = "ultra_fresh"
)

// BuiltinProfiles devuelve los perfiles por defecto.
//   - gem: estricto, pares jóvenes con spike fuerte y cap pequeño.
//   - discovery: amplio, mismo espíritu con umbrales relajados.
//   - alpha: pares ya establecidos con volumen y cap altos.
//   - ultra_fresh: lo que usa el poller, pares de menos de 2h.
func BuiltinProfiles() map[string]CriteriaProfile {
	return map[string]CriteriaProfile{
		ProfileGem: {
			Name:              ProfileGem,
			MaxAgeHours:       72,
			MinLiquidityUSD:   2_000,
			MinVolumeSpikePct: 200,
			MarketCapMin:      5_000,
			MarketCapMax:      500_000,
		},
		ProfileDiscovery: {
			Name:              ProfileDiscovery,
			MaxAgeHours:       24,
			MinLiquidityUSD:   1_000,
			MinVolumeSpikePct: 100,
			MarketCapMin:      1_000,
			MarketCapMax:      1_000_000,
		},
		ProfileAlpha: {
			Name:            ProfileAlpha,
			MaxAgeHours:     30 * 24,
			MinLiquidityUSD: 25_000,
			MinVolume24hUSD: 50_000,
			MarketCapMin:    100_000,
		},
		ProfileUltraFresh: {
			Name:            ProfileUltraFresh,
			MaxAgeHours:     2,
			MinLiquidityUSD: 500,
		},
	}
}

// ProfileSet es una colección inmutable de perfiles indexada por nombre.
type ProfileSet struct {
	byName map[string]CriteriaProfile
}

// NewProfileSet combina los perfiles incluidos con los extra.
// Un extra con el mismo nombre que uno incluido lo reemplaza.
func NewProfileSet(extra ...CriteriaProfile) (ProfileSet, error) {
	byName := BuiltinProfiles()
	for _, p := range extra {
		if p.Name == "" {
			return ProfileSet{}, fmt.Errorf("domain.NewProfileSet: profile without name")
		}
		if p.MarketCapMax > 0 && p.MarketCapMin > p.MarketCapMax {
			return ProfileSet{}, fmt.Errorf("domain.NewProfileSet: %q: market_cap_min > market_cap_max", p.Name)
		}
		byName[p.Name] = p
	}
	return ProfileSet{byName: byName}, nil
}

// Get devuelve el perfil con ese nombre o ErrUnknownProfile.
func (s ProfileSet) Get(name string) (CriteriaProfile, error) {
	p, ok := s.byName[name]
	if !ok {
		return CriteriaProfile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// All devuelve los perfiles ordenados por nombre.
func (s ProfileSet) All() []CriteriaProfile {
	out := make([]CriteriaProfile, 0, len(s.byName))
	for _, p := range s.byName {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
