package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/gamblersruin/internal/adapters/notify"
	"github.com/alejandrodnm/gamblersruin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRun(p domain.SimulationParameters, wins, brokes, inconclusive int) domain.RunRecord {
	total := wins + brokes + inconclusive
	return domain.RunRecord{
		ID:        "3f2a9c1e-0000-4000-8000-000000000000",
		CreatedAt: time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC),
		Params:    p,
		Result: domain.SimulationResult{
			WinProbability:       float64(wins) / float64(total),
			BrokeProbability:     float64(brokes) / float64(total),
			InconclusiveFraction: float64(inconclusive) / float64(total),
			Trials:               total,
			Tally:                domain.Tally{Wins: wins, Brokes: brokes, Inconclusive: inconclusive},
			WinStdError:          0.005,
			LowConfidence:        float64(inconclusive)/float64(total) > 0.01,
			Elapsed:              42 * time.Millisecond,
		},
	}
}

func TestFormatProbability(t *testing.T) {
	assert.Equal(t, "50.00%", notify.FormatProbability(0.5))
	assert.Equal(t, "2.21%", notify.FormatProbability(0.022062))
	assert.Equal(t, "100.00%", notify.FormatProbability(1))
	assert.Equal(t, "0.00%", notify.FormatProbability(0))
}

func TestConsole_Report_BasicShowsTheory(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	err := c.Report(context.Background(), makeRun(domain.BasicParams(3, 10, 1000), 300, 700, 0))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "3f2a9c1e")
	assert.Contains(t, out, "30.00%")
	assert.Contains(t, out, "70.00%")
	assert.Contains(t, out, "Theoretical: 30.00%")
	assert.NotContains(t, out, "LOW CONFIDENCE")
}

func TestConsole_Report_ExtendedHasNoClosedForm(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	p := domain.GeneralParams(10, 20, 0.45, 1.5, 2, 1000)
	p.Mode = domain.ModeExtended
	p.UseMaxBet = true
	p.MaxBet = 7

	require.NoError(t, c.Report(context.Background(), makeRun(p, 400, 500, 100)))

	out := buf.String()
	assert.NotContains(t, out, "Theoretical")
	assert.Contains(t, out, "LOW CONFIDENCE")
	assert.Contains(t, out, "10.00%")
	assert.Contains(t, out, "7")
	assert.Contains(t, out, "fixed+cap")
}

func TestConsole_Report_ShowsRecordedPolicyAndStepLimit(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	p := domain.GeneralParams(10, 20, 0.5, 2, 1, 100)
	p.Mode = domain.ModeExtended
	p.UseDynamicBetting = true
	run := makeRun(p, 40, 40, 20)
	run.Result.Policy = "martingale"
	run.Result.StepLimit = 40_000

	require.NoError(t, c.Report(context.Background(), run))

	out := buf.String()
	assert.Contains(t, out, "martingale")
	assert.Contains(t, out, "(40000 steps)")
	assert.NotContains(t, out, "(0 steps)")
}

func TestConsole_PrintHistory(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	c.PrintHistory([]domain.RunRecord{
		makeRun(domain.BasicParams(5, 10, 100), 50, 50, 0),
		makeRun(domain.GeneralParams(2, 10, 0.4, 2, 1, 200), 4, 196, 0),
	})

	out := buf.String()
	assert.Contains(t, out, "2 runs")
	assert.Contains(t, out, "basic")
	assert.Contains(t, out, "general")
	assert.Contains(t, out, "2.21%") // teoría i=2 n=10 p=0.4
}

func TestConsole_PrintHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf).PrintHistory(nil)
	assert.Contains(t, buf.String(), "No runs stored yet")
}
