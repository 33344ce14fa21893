package discovery

import "github.com/alejandrodnm/pairscout/internal/domain"

// Dedupe deja un candidato por PairID conservando el orden de primera aparición.
// El primer registro gana completo, sin mezclar campos de duplicados posteriores:
// una respuesta posterior y menos completa no debe pisar campos sueltos.
func Dedupe(candidates []domain.Candidate) []domain.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.PairID]; ok {
			continue
		}
		seen[c.PairID] = struct{}{}
		out = append(out, c)
	}
	return out
}

// mergeResults concatena los candidatos de los resultados en orden de invocación.
func mergeResults(results ...[]strategyResult) []domain.Candidate {
	n := 0
	for _, rs := range results {
		for _, r := range rs {
			n += len(r.Candidates)
		}
	}
	out := make([]domain.Candidate, 0, n)
	for _, rs := range results {
		for _, r := range rs {
			out = append(out, r.Candidates...)
		}
	}
	return out
}
