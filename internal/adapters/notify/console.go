package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alejandrodnm/pairscout/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier y pinta pases e histórico en terminal.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsoleWriter crea un notificador que escribe en w.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyNewPair imprime una línea por par recién descubierto y, si existe,
// una segunda línea con el razonamiento del score.
func (c *Console) NotifyNewPair(_ context.Context, sc domain.ScoredCandidate) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] NEW %s %s %s score %.2f %s",
		time.Now().Format("15:04:05"),
		pairLabel(sc.Candidate),
		sc.ChainID,
		sc.Venue,
		sc.CompositeScore,
		sc.Classification,
	)
	if sc.Alert != "" {
		fmt.Fprintf(&sb, " %s", sc.Alert)
	}
	fmt.Fprintf(&sb, " | age %s liq %s vol24 %s mcap %s",
		ageLabel(sc.Candidate),
		usd(sc.LiquidityUSD),
		usd(sc.Volume24hUSD),
		usd(sc.MarketCapUSD),
	)
	if sc.URL != "" {
		fmt.Fprintf(&sb, " %s", sc.URL)
	}
	sb.WriteString("\n")
	if sc.Reason != "" {
		fmt.Fprintf(&sb, "    > %s\n", sc.Reason)
	}

	if _, err := io.WriteString(c.out, sb.String()); err != nil {
		return fmt.Errorf("notify.NotifyNewPair: %w", err)
	}
	return nil
}

// PrintPass imprime el resultado de un pase en el modo configurado.
func (c *Console) PrintPass(profile string, results []domain.ScoredCandidate) {
	if len(results) == 0 {
		fmt.Fprintf(c.out, "[%s] %s: no opportunities found right now\n", time.Now().Format("15:04:05"), profile)
		return
	}
	if c.table {
		c.printFull(profile, results)
	} else {
		c.printCompact(profile, results)
	}
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(profile string, results []domain.ScoredCandidate) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s: %d pairs", time.Now().Format("15:04:05"), profile, len(results))

	for i, sc := range results {
		if i >= 4 {
			break
		}
		fmt.Fprintf(&sb, " | %s %.1f %s %s", compactName(pairLabel(sc.Candidate), 20), sc.CompositeScore, sc.Classification, ageLabel(sc.Candidate))
	}
	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla completa con sub-scores.
func (c *Console) printFull(profile string, results []domain.ScoredCandidate) {
	counts := countByClass(results)
	fmt.Fprintf(c.out, "\n[%s] %s: %d pairs (%s)\n", time.Now().Format("15:04:05"), profile, len(results), counts)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Pair", "Chain", "Age", "Liq", "Vol 24h", "Spike", "MCap", "Txns", "Fresh", "Act", "Mom", "Safe", "Score", "Class")
	for i, sc := range results {
		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(pairLabel(sc.Candidate), 24),
			sc.ChainID,
			ageLabel(sc.Candidate),
			usd(sc.LiquidityUSD),
			usd(sc.Volume24hUSD),
			fmt.Sprintf("%.0f%%", sc.VolumeSpikePct()),
			usd(sc.MarketCapUSD),
			fmt.Sprintf("%d", sc.TxCount24h),
			fmt.Sprintf("%.2f", sc.SubScores[domain.SubScoreFreshness]),
			fmt.Sprintf("%.2f", sc.SubScores[domain.SubScoreActivity]),
			fmt.Sprintf("%.2f", sc.SubScores[domain.SubScoreMomentum]),
			fmt.Sprintf("%.2f", sc.SubScores[domain.SubScoreSafetyProxy]),
			fmt.Sprintf("%.2f", sc.CompositeScore),
			sc.Classification,
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Spike = vol 1h vs media horaria 24h | Safe = proxy observable, no verifica locks ni holders")
}

// PrintHistory imprime las observaciones guardadas, las mejores primero.
// peaks es el mejor score histórico por PairID; si falta se muestra "-".
func (c *Console) PrintHistory(since time.Duration, passes int, history []domain.ScoredCandidate, peaks map[string]float64) {
	if len(history) == 0 {
		fmt.Fprintf(c.out, "\n  No pairs recorded in the last %s (%d passes stored).\n", since, passes)
		return
	}

	fmt.Fprintf(c.out, "\n=== HISTORY (last %s, %d pairs, %d passes stored) ===\n", since, len(history), passes)
	table := tablewriter.NewWriter(c.out)
	table.Header("Last seen", "Pair", "Chain", "Source", "Liq", "Score", "Peak", "Class", "URL")
	for _, sc := range history {
		peak := "-"
		if v, ok := peaks[sc.PairID]; ok {
			peak = fmt.Sprintf("%.2f", v)
		}
		table.Append(
			sc.ObservedAt.Local().Format("01-02 15:04"),
			truncate(pairLabel(sc.Candidate), 24),
			sc.ChainID,
			sc.Source,
			usd(sc.LiquidityUSD),
			fmt.Sprintf("%.2f", sc.CompositeScore),
			peak,
			sc.Classification,
			sc.URL,
		)
	}
	table.Render()
}

// PrintFresh imprime los pares descubiertos por el poller dentro de la ventana.
func (c *Console) PrintFresh(window time.Duration, records []domain.DiscoveryRecord) {
	if len(records) == 0 {
		fmt.Fprintf(c.out, "\n  No new pairs discovered in the last %s.\n", window)
		return
	}

	fmt.Fprintf(c.out, "\n=== FRESH (last %s, %d pairs) ===\n", window, len(records))
	table := tablewriter.NewWriter(c.out)
	table.Header("First seen", "Pair", "Chain", "Age", "Liq", "Score", "Alert", "Seen")
	for _, rec := range records {
		sc := rec.LastCandidate
		table.Append(
			rec.FirstSeenAt.Local().Format("01-02 15:04"),
			truncate(pairLabel(sc.Candidate), 24),
			sc.ChainID,
			ageLabel(sc.Candidate),
			usd(sc.LiquidityUSD),
			fmt.Sprintf("%.2f", sc.CompositeScore),
			sc.Alert,
			fmt.Sprintf("%dx", rec.Observations),
		)
	}
	table.Render()
}

// PrintReport imprime el análisis de un token.
func (c *Console) PrintReport(r domain.TokenReport) {
	sc := r.Pair
	fmt.Fprintf(c.out, "\n=== ANALYSIS %s ===\n", r.TokenAddress)
	fmt.Fprintf(c.out, "  Pair: %s on %s/%s (%d pairs found) %s\n",
		pairLabel(sc.Candidate), sc.ChainID, sc.Venue, r.PairsFound, sc.URL)
	fmt.Fprintf(c.out, "  Score: %.2f/10 %s | %s | risk %s\n",
		sc.CompositeScore, sc.Classification, r.Recommendation, r.Risk)

	table := tablewriter.NewWriter(c.out)
	table.Header("Fresh", "Act", "Mom", "Safe", "Age", "Liq", "Vol 24h", "MCap", "Txns")
	table.Append(
		fmt.Sprintf("%.2f", sc.SubScores[domain.SubScoreFreshness]),
		fmt.Sprintf("%.2f", sc.SubScores[domain.SubScoreActivity]),
		fmt.Sprintf("%.2f", sc.SubScores[domain.SubScoreMomentum]),
		fmt.Sprintf("%.2f", sc.SubScores[domain.SubScoreSafetyProxy]),
		ageLabel(sc.Candidate),
		usd(sc.LiquidityUSD),
		usd(sc.Volume24hUSD),
		usd(sc.MarketCapUSD),
		fmt.Sprintf("%d", sc.TxCount24h),
	)
	table.Render()

	printList(c.out, "Red flags", r.Assessment.RedFlags)
	printList(c.out, "Warnings", r.Assessment.Warnings)
	printList(c.out, "Good signs", r.Assessment.GoodSigns)
	if sc.Reason != "" {
		fmt.Fprintf(c.out, "  > %s\n", sc.Reason)
	}
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s:\n", title)
	for _, it := range items {
		fmt.Fprintf(w, "    - %s\n", it)
	}
}

// PrintProfiles imprime los perfiles de criterios configurados.
func (c *Console) PrintProfiles(profiles []domain.CriteriaProfile) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Profile", "Max age", "Min liq", "Min vol 24h", "Min spike", "MCap", "Chains")
	for _, p := range profiles {
		table.Append(
			p.Name,
			threshold(p.MaxAgeHours, "%.0fh"),
			threshold(p.MinLiquidityUSD, "$%.0f"),
			threshold(p.MinVolume24hUSD, "$%.0f"),
			threshold(p.MinVolumeSpikePct, "%.0f%%"),
			mcapBand(p),
			chainsLabel(p.Chains),
		)
	}
	table.Render()
}

// --- helpers ---

func pairLabel(c domain.Candidate) string {
	base, quote := c.BaseSymbol, c.QuoteSymbol
	if base == "" {
		base = shortAddr(c.BaseAssetID)
	}
	if quote == "" {
		quote = shortAddr(c.QuoteAssetID)
	}
	return base + "/" + quote
}

func shortAddr(addr string) string {
	r := []rune(addr)
	if len(r) <= 8 {
		return addr
	}
	return string(r[:4]) + ".." + string(r[len(r)-4:])
}

func ageLabel(c domain.Candidate) string {
	age, ok := c.AgeHours(c.ObservedAt)
	switch {
	case !ok:
		return "?"
	case age < 1:
		return fmt.Sprintf("%.0fm", age*60)
	case age < 48:
		return fmt.Sprintf("%.1fh", age)
	default:
		return fmt.Sprintf("%.0fd", age/24)
	}
}

// usd formatea importes en notación corta: $950, $15.0k, $1.20M.
func usd(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("$%.1fk", v/1e3)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

func threshold(v float64, format string) string {
	if v <= 0 {
		return "-"
	}
	return fmt.Sprintf(format, v)
}

func mcapBand(p domain.CriteriaProfile) string {
	switch {
	case p.MarketCapMin <= 0 && p.MarketCapMax <= 0:
		return "-"
	case p.MarketCapMax <= 0:
		return ">= " + usd(p.MarketCapMin)
	default:
		return usd(p.MarketCapMin) + " - " + usd(p.MarketCapMax)
	}
}

func chainsLabel(chains []string) string {
	if len(chains) == 0 {
		return "any"
	}
	return strings.Join(chains, ",")
}

func countByClass(results []domain.ScoredCandidate) string {
	counts := make(map[string]int)
	var order []string
	for _, sc := range results {
		if counts[sc.Classification] == 0 {
			order = append(order, sc.Classification)
		}
		counts[sc.Classification]++
	}
	parts := make([]string, 0, len(order))
	for _, label := range order {
		parts = append(parts, fmt.Sprintf("%s:%d", label, counts[label]))
	}
	return strings.Join(parts, " ")
}

// truncate y compactName cortan por runas: los símbolos de memecoins suelen
// llevar emoji o CJK.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func compactName(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "…"
}
