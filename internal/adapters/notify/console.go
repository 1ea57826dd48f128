package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/gamblersruin/internal/domain"
	"github.com/alejandrodnm/gamblersruin/internal/ports"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Reporter.
type Console struct {
	out   io.Writer
	table bool
}

var _ ports.Reporter = (*Console)(nil)

// NewConsole crea un reporter que escribe a stdout.
// table=false imprime una sola línea por run.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un reporter para tests (siempre en modo tabla).
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w, table: true}
}

// Report imprime el run en el modo configurado.
func (c *Console) Report(_ context.Context, run domain.RunRecord) error {
	if c.table {
		c.printFull(run)
	} else {
		c.printCompact(run)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(run domain.RunRecord) {
	p, res := run.Params, run.Result

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s i=%d n=%d p=%.4g → win %s broke %s (%d trials, %s)",
		run.CreatedAt.Local().Format("15:04:05"), p.Mode, p.Start, p.Goal, p.WinProb,
		FormatProbability(res.WinProbability), FormatProbability(res.BrokeProbability),
		res.Trials, res.Elapsed.Round(time.Millisecond))

	if want, ok := domain.AnalyticWinProbability(p); ok {
		fmt.Fprintf(&sb, " | theory %s", FormatProbability(want))
	}
	if res.LowConfidence {
		fmt.Fprintf(&sb, " | LOW CONFIDENCE (%s inconclusive)", FormatProbability(res.InconclusiveFraction))
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime parámetros, resultados y la comparación con la fórmula cerrada.
func (c *Console) printFull(run domain.RunRecord) {
	p, res := run.Params, run.Result

	fmt.Fprintf(c.out, "\n[%s] %s simulation %s: %d trials in %s\n",
		run.CreatedAt.Local().Format("15:04:05"), p.Mode, shortID(run.ID), res.Trials, res.Elapsed.Round(time.Millisecond))

	c.printParams(p, res.Policy)

	table := tablewriter.NewWriter(c.out)
	table.Header("Outcome", "Count", "Share")
	table.Append("WIN", fmt.Sprintf("%d", res.Tally.Wins), FormatProbability(res.WinProbability))
	table.Append("BROKE", fmt.Sprintf("%d", res.Tally.Brokes), FormatProbability(res.BrokeProbability))
	table.Append("INCONCLUSIVE", fmt.Sprintf("%d", res.Tally.Inconclusive), FormatProbability(res.InconclusiveFraction))
	table.Render()

	lo, hi := res.ConfidenceInterval()
	fmt.Fprintf(c.out, "  P(win) = %s  ±%s  (95%% CI %s - %s)\n",
		FormatProbability(res.WinProbability), FormatProbability(1.96*res.WinStdError),
		FormatProbability(lo), FormatProbability(hi))

	if want, ok := domain.AnalyticWinProbability(p); ok {
		diff := res.WinProbability - want
		fmt.Fprintf(c.out, "  Theoretical: %s  (simulated − theory = %+.2f pp)\n",
			FormatProbability(want), diff*100)
	}

	if res.LowConfidence {
		fmt.Fprintf(c.out, "\n  ⚠ LOW CONFIDENCE: %s of walks hit the step guard (%d steps)\n",
			FormatProbability(res.InconclusiveFraction), stepLimit(p, res))
	}
	fmt.Fprintln(c.out)
}

func (c *Console) printParams(p domain.SimulationParameters, policy string) {
	table := tablewriter.NewWriter(c.out)
	table.Header("i", "n", "p", "q", "j", "k", "m", "Policy")
	table.Append(
		fmt.Sprintf("%d", p.Start),
		fmt.Sprintf("%d", p.Goal),
		fmt.Sprintf("%.4g", p.WinProb),
		fmt.Sprintf("%.4g", p.Payout),
		fmt.Sprintf("%d", p.Bet),
		optional(p.UseCredit, p.Credit),
		optional(p.UseMaxBet, p.MaxBet),
		policyLabel(p, policy),
	)
	table.Render()
}

// PrintHistory imprime los runs persistidos, uno por fila.
func (c *Console) PrintHistory(runs []domain.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "No runs stored yet")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Run", "When", "Mode", "i", "n", "p", "Trials", "P(win)", "Theory", "Conf")

	for i, run := range runs {
		p, res := run.Params, run.Result

		theory := "-"
		if want, ok := domain.AnalyticWinProbability(p); ok {
			theory = FormatProbability(want)
		}
		conf := "ok"
		if res.LowConfidence {
			conf = "LOW"
		}

		table.Append(
			fmt.Sprintf("%d", i+1),
			shortID(run.ID),
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(p.Mode),
			fmt.Sprintf("%d", p.Start),
			fmt.Sprintf("%d", p.Goal),
			fmt.Sprintf("%.4g", p.WinProb),
			fmt.Sprintf("%d", res.Trials),
			FormatProbability(res.WinProbability),
			theory,
			conf,
		)
	}
	table.Render()
	fmt.Fprintf(c.out, "  %d runs\n", len(runs))
}

// FormatProbability formatea una probabilidad como porcentaje con dos decimales.
func FormatProbability(p float64) string {
	if math.IsNaN(p) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", p*100)
}

// --- helpers ---

func optional(enabled bool, v int) string {
	if !enabled {
		return "-"
	}
	return fmt.Sprintf("%d", v)
}

// policyLabel prefiere el nombre registrado por el runner; los runs sin él
// solo distinguen fija de dinámica.
func policyLabel(p domain.SimulationParameters, recorded string) string {
	if recorded != "" {
		return recorded
	}
	label := "fixed"
	if p.UseDynamicBetting {
		label = "dynamic"
	}
	if p.UseMaxBet {
		label += "+cap"
	}
	return label
}

func stepLimit(p domain.SimulationParameters, res domain.SimulationResult) int {
	if res.StepLimit > 0 {
		return res.StepLimit
	}
	return p.MaxSteps
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
