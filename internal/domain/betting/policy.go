package betting

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/gamblersruin/internal/domain"
)

// MaxBetCeiling satura cualquier apuesta dinámica para que siga siendo un
// entero finito aunque la racha de pérdidas sea enorme.
const MaxBetCeiling = 1 << 40

// DefaultFraction es la fracción de min(capital, n-capital) que apuesta la
// política proporcional.
const DefaultFraction = 0.5

// State es la vista de un trial en curso que necesita una política.
type State struct {
	Capital    float64
	Step       int
	LossStreak int // pérdidas consecutivas; 0 tras una victoria
}

// Policy decide el tamaño de la próxima apuesta.
// Las implementaciones no guardan estado propio: todo lo que varía entre pasos
// llega en State, así que una instancia puede compartirse entre workers.
type Policy interface {
	// NextBet devuelve un entero positivo.
	NextBet(s State, p domain.SimulationParameters) int
	Name() string
}

// Kind selecciona la fórmula de apuesta dinámica.
type Kind string

const (
	KindProportional Kind = "proportional"
	KindMartingale   Kind = "martingale"
)

// ParseKind convierte el valor de config a Kind. Vacío = proporcional.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindProportional:
		return KindProportional, nil
	case KindMartingale:
		return KindMartingale, nil
	default:
		return "", fmt.Errorf("betting.ParseKind: unknown dynamic policy %q (proportional|martingale)", s)
	}
}

// Options configura la política dinámica de un run.
type Options struct {
	Kind     Kind
	Fraction float64 // solo proporcional; <=0 usa DefaultFraction
}

// ForParams compone la política de un run: fija o dinámica según
// UseDynamicBetting, y envuelta en Capped si UseMaxBet.
func ForParams(p domain.SimulationParameters, opts Options) Policy {
	var policy Policy = Fixed{}
	if p.UseDynamicBetting {
		switch opts.Kind {
		case KindMartingale:
			policy = Martingale{}
		default:
			policy = Proportional{Fraction: opts.Fraction}
		}
	}
	if p.UseMaxBet {
		policy = Capped{Inner: policy, Max: p.MaxBet}
	}
	return policy
}

// Fixed apuesta siempre j.
type Fixed struct{}

func (Fixed) NextBet(_ State, p domain.SimulationParameters) int { return p.Bet }
func (Fixed) Name() string                                      { return "fixed" }

// Proportional apuesta una fracción de lo que esté más cerca: el capital que
// queda o la distancia al objetivo. Nunca baja de j.
//
//	bet = max(j, floor(Fraction · min(capital, n − capital)))
type Proportional struct {
	Fraction float64
}

func (b Proportional) NextBet(s State, p domain.SimulationParameters) int {
	f := b.Fraction
	if f <= 0 {
		f = DefaultFraction
	}
	room := math.Min(s.Capital, float64(p.Goal)-s.Capital)
	bet := math.Floor(f * room)
	if bet < float64(p.Bet) {
		return p.Bet
	}
	if bet > MaxBetCeiling {
		return MaxBetCeiling
	}
	return int(bet)
}

func (b Proportional) Name() string { return string(KindProportional) }

// Martingale multiplica la apuesta base por 1/p tras cada pérdida y vuelve a j
// tras una victoria.
//
//	bet = ceil(j · (1/p)^lossStreak)
type Martingale struct{}

func (Martingale) NextBet(s State, p domain.SimulationParameters) int {
	if s.LossStreak <= 0 {
		return p.Bet
	}
	bet := float64(p.Bet) * math.Pow(1/p.WinProb, float64(s.LossStreak))
	if math.IsInf(bet, 0) || math.IsNaN(bet) || bet > MaxBetCeiling {
		return MaxBetCeiling
	}
	// El épsilon evita que 2.0000000001 se convierta en 3.
	return int(math.Ceil(bet - 1e-9))
}

func (Martingale) Name() string { return string(KindMartingale) }

// Capped limita la salida de cualquier política a Max.
type Capped struct {
	Inner Policy
	Max   int
}

func (c Capped) NextBet(s State, p domain.SimulationParameters) int {
	bet := c.Inner.NextBet(s, p)
	if bet > c.Max {
		return c.Max
	}
	return bet
}

func (c Capped) Name() string { return c.Inner.Name() + "+cap" }
