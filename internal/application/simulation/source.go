package simulation

import "math/rand/v2"

// Source entrega uniformes en [0,1). Cada worker tiene la suya; nunca se comparte.
type Source interface {
	Float64() float64
}

const golden = 0x9e3779b97f4a7c15

// NewSource crea el generador privado del worker dado. Las dos palabras de
// semilla del PCG se derivan de (root, worker) con SplitMix64, de modo que
// la misma raíz reproduce el mismo reparto de streams.
func NewSource(root uint64, worker int) *rand.Rand {
	s1 := splitmix64(root + uint64(worker+1)*golden)
	s2 := splitmix64(s1 ^ uint64(worker))
	return rand.New(rand.NewPCG(s1, s2))
}

// RandomSeed devuelve una semilla raíz nueva para runs sin semilla explícita.
func RandomSeed() uint64 {
	for {
		if s := rand.Uint64(); s != 0 {
			return s
		}
	}
}

func splitmix64(x uint64) uint64 {
	x += golden
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
