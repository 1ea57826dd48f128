package domain

import "fmt"

// Mode identifica la variante de la API que originó una simulación.
// Las tres variantes comparten el mismo núcleo; el modo solo decide qué
// parámetros son libres y cuáles quedan fijados.
type Mode string

const (
	ModeBasic    Mode = "basic"
	ModeGeneral  Mode = "general"
	ModeExtended Mode = "extended"
)

// Parámetros implícitos del modo basic: moneda justa, doble o nada, apuesta de 1.
const (
	BasicWinProb = 0.5
	BasicPayout  = 2.0
	BasicBet     = 1
)

// ParseMode convierte un string de CLI/config a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBasic, ModeGeneral, ModeExtended:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("domain.ParseMode: unknown mode %q (basic|general|extended)", s)
	}
}

// SimulationParameters describe una ejecución completa. Es inmutable durante el run:
// cada worker recibe una copia por valor.
type SimulationParameters struct {
	Mode Mode

	Start   int     // i: capital inicial
	Goal    int     // n: objetivo
	WinProb float64 // p: probabilidad de ganar cada apuesta
	Payout  float64 // q: multiplicador; una apuesta ganada b suma b*(q-1)
	Bet     int     // j: apuesta base / fija

	Credit int // k: línea de crédito, solo con UseCredit
	MaxBet int // m: apuesta máxima, solo con UseMaxBet

	UseCredit         bool
	UseDynamicBetting bool
	UseMaxBet         bool

	Trials int

	// MaxSteps acota cada trial. 0 = derivar del rango entre fronteras.
	MaxSteps int
	// Seed es la semilla raíz de los generadores por worker. 0 = aleatoria.
	Seed uint64
}

// BasicParams construye los parámetros del juego clásico de moneda justa.
func BasicParams(start, goal, trials int) SimulationParameters {
	return SimulationParameters{
		Mode:    ModeBasic,
		Start:   start,
		Goal:    goal,
		WinProb: BasicWinProb,
		Payout:  BasicPayout,
		Bet:     BasicBet,
		Trials:  trials,
	}
}

// GeneralParams construye parámetros con apuesta fija y sin extensiones.
func GeneralParams(start, goal int, winProb, payout float64, bet, trials int) SimulationParameters {
	return SimulationParameters{
		Mode:    ModeGeneral,
		Start:   start,
		Goal:    goal,
		WinProb: winProb,
		Payout:  payout,
		Bet:     bet,
		Trials:  trials,
	}
}

// HasExtension indica si al menos una extensión está activa.
func (p SimulationParameters) HasExtension() bool {
	return p.UseCredit || p.UseDynamicBetting || p.UseMaxBet
}

// LowerBound es la frontera absorbente inferior: 0, o -k con crédito.
func (p SimulationParameters) LowerBound() int {
	if p.UseCredit {
		return -p.Credit
	}
	return 0
}

// UpperBound es la frontera absorbente superior (el objetivo).
func (p SimulationParameters) UpperBound() int {
	return p.Goal
}

// IsSimpleWalk indica si el paseo es el ±1 clásico con solución cerrada:
// apuesta fija de 1, pago doble y sin extensiones.
func (p SimulationParameters) IsSimpleWalk() bool {
	return !p.HasExtension() && p.Bet == 1 && p.Payout == 2
}

// Validate comprueba los invariantes del modelo. Devuelve un *ValidationError
// (errors.Is(err, ErrInvalidParameters)) con el primer campo inválido.
func (p SimulationParameters) Validate() error {
	if p.Start <= 0 {
		return invalid("i", "starting amount (i) must be greater than 0")
	}
	if p.Goal <= p.Start {
		return invalid("n", "goal amount (n) must be greater than starting amount (i)")
	}
	if !(p.WinProb > 0 && p.WinProb < 1) {
		return invalid("p", "win probability (p) must be between 0 and 1 (exclusive)")
	}
	if !(p.Payout > 1) {
		return invalid("q", "payout multiplier (q) must be greater than 1")
	}
	if p.Bet <= 0 {
		return invalid("j", "bet size (j) must be greater than 0")
	}
	if p.Trials <= 0 {
		return invalid("trials", "number of trials must be greater than 0")
	}
	if p.MaxSteps < 0 {
		return invalid("max_steps", "step limit must not be negative")
	}

	if p.Mode == ModeExtended && !p.HasExtension() {
		return ErrNoExtension
	}
	if p.Mode == ModeBasic && (p.WinProb != BasicWinProb || p.Payout != BasicPayout || p.Bet != BasicBet || p.HasExtension()) {
		return invalid("mode", "basic mode fixes p=0.5, q=2, j=1 and no extensions")
	}
	if p.Mode == ModeGeneral && p.HasExtension() {
		return invalid("mode", "general mode does not accept extensions")
	}

	if p.UseCredit && p.Credit < 0 {
		return invalid("k", "credit line amount (k) must not be negative")
	}
	if p.UseMaxBet && p.MaxBet < p.Bet {
		return invalid("m", "maximum bet (m) must be at least the base bet (j)")
	}
	return nil
}
