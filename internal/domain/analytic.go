package domain

import "math"

// TheoreticalWinProbability devuelve la probabilidad cerrada de alcanzar n
// partiendo de i en un paseo ±1 con probabilidad p de subir.
//
//	p = 0.5 → i/n
//	p ≠ 0.5 → (1 - r^i) / (1 - r^n), r = (1-p)/p
func TheoreticalWinProbability(i, n int, p float64) float64 {
	if n <= 0 || i <= 0 {
		return 0
	}
	if i >= n {
		return 1
	}
	if p == 0.5 {
		return float64(i) / float64(n)
	}
	r := (1 - p) / p
	// Para r muy grande r^n desborda; en el límite el cociente tiende a r^(i-n).
	if math.IsInf(math.Pow(r, float64(n)), 1) {
		return math.Pow(r, float64(i-n))
	}
	return (1 - math.Pow(r, float64(i))) / (1 - math.Pow(r, float64(n)))
}

// AnalyticWinProbability devuelve la solución cerrada si los parámetros
// describen un paseo ±1 simple. ok=false en cualquier otro caso.
func AnalyticWinProbability(p SimulationParameters) (prob float64, ok bool) {
	if !p.IsSimpleWalk() {
		return 0, false
	}
	return TheoreticalWinProbability(p.Start, p.Goal, p.WinProb), true
}
