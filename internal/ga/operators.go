package ga

import (
	"math/rand"
	"sort"

	"palbp/internal/line"
)

// Seed - стартовое назначение: случайное ранжирование задач и случайная
// станция для каждого ранга. Нужна только для построения одной
// bootstrap-особи; допустимость по предшествованию здесь не гарантируется.
type Seed struct {
	// Ranking[p] - ранг, стоящий в позиции p.
	Ranking []int
	// StationOf[r] - станция ранга r.
	StationOf []int
	// PositionOf[r] - позиция ранга r.
	PositionOf []int
}

// SeedAssignment строит Seed и bootstrap-особь: в позиции p стоит задача p,
// назначенная на станцию её ранга.
func SeedAssignment(inst *line.Instance, rng *rand.Rand) (Seed, line.Individual) {
	n := inst.Total()
	s := Seed{
		Ranking:    rng.Perm(n),
		StationOf:  make([]int, n),
		PositionOf: make([]int, n),
	}
	for _, r := range s.Ranking {
		s.StationOf[r] = rng.Intn(inst.Stations)
	}
	for p, r := range s.Ranking {
		s.PositionOf[r] = p
	}

	boot := line.NewIndividual(n)
	for r := 0; r < n; r++ {
		p := s.PositionOf[r]
		boot.Tasks[p] = p
		boot.Stations[p] = s.StationOf[r]
	}
	return s, boot
}

// InitPopulation строит size особей из bootstrap-особи. Для каждой линии
// значения станций перемешиваются один раз, а порядок задач - до тех пор,
// пока он не станет допустимым, но не более retries раз. Затем берётся
// случайный топологический порядок. Возвращает число таких замен.
func InitPopulation(inst *line.Instance, boot line.Individual, size, retries int, rng *rand.Rand) ([]line.Individual, int) {
	pop := make([]line.Individual, size)
	fallbacks := 0
	for i := range pop {
		ind := boot.Clone()
		for l := 1; l <= 2; l++ {
			start, end := inst.Segment(l)
			if start == end {
				continue
			}
			cons := inst.Constraints(l)
			shufflePermutation(ind.Stations[start:end], rng)

			tasks := ind.Tasks[start:end]
			ok := false
			for try := 0; try < retries; try++ {
				shufflePermutation(tasks, rng)
				if line.RespectsPrecedence(tasks, cons) {
					ok = true
					break
				}
			}
			if !ok {
				initPermutation(tasks, start)
				copy(tasks, line.TopologicalOrder(tasks, cons, rng))
				fallbacks++
			}
		}
		pop[i] = ind
	}
	return pop, fallbacks
}

// initPermutation заполняет срез значениями [offset, offset+len).
func initPermutation(p []int, offset int) {
	for i := range p {
		p[i] = offset + i
	}
}

// shufflePermutation выполняет случайную перестановку элементов.
func shufflePermutation(p []int, rng *rand.Rand) {
	for i := len(p) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
}

// tournamentSelect реализует турнирный отбор.
// Участники турнира выбираются без повторений (частичная перестановка в
// scratch), победитель - первый встреченный минимум.
func tournamentSelect(scores []float64, tournamentSize int, rng *rand.Rand, scratch []int) int {
	n := len(scores)
	k := tournamentSize
	if k > n {
		k = n
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		scratch[i], scratch[j] = scratch[j], scratch[i]
	}
	best := scratch[0]
	for _, cand := range scratch[1:k] {
		if scores[cand] < scores[best] {
			best = cand
		}
	}
	return best
}

// TournamentSelection возвращает по одному победителю турнира на каждую
// особь популяции, так что размер пула не меняется.
func TournamentSelection(scores []float64, tournamentSize int, rng *rand.Rand) []int {
	scratch := make([]int, len(scores))
	initPermutation(scratch, 0)
	out := make([]int, len(scores))
	for i := range out {
		out[i] = tournamentSelect(scores, tournamentSize, rng, scratch)
	}
	return out
}

// Crossover реализует одноточечный кроссовер с точкой разреза в [1, n-1].
// Хвосты обменивают обе дорожки. Потомок, нарушающий предшествование
// (или потерявший перестановку задач своей линии), заменяется копией
// своего родителя; флаги сообщают о таких заменах.
func Crossover(inst *line.Instance, p1, p2, c1, c2 line.Individual, rng *rand.Rand) (fallback1, fallback2 bool) {
	n := p1.Len()
	if n < 2 {
		c1.CopyFrom(p1)
		c2.CopyFrom(p2)
		return false, false
	}
	point := 1 + rng.Intn(n-1)

	splice := func(dst, head, tail line.Individual) {
		copy(dst.Tasks[:point], head.Tasks[:point])
		copy(dst.Tasks[point:], tail.Tasks[point:])
		copy(dst.Stations[:point], head.Stations[:point])
		copy(dst.Stations[point:], tail.Stations[point:])
	}
	splice(c1, p1, p2)
	splice(c2, p2, p1)

	if !inst.Feasible(c1) {
		c1.CopyFrom(p1)
		fallback1 = true
	}
	if !inst.Feasible(c2) {
		c2.CopyFrom(p2)
		fallback2 = true
	}
	return fallback1, fallback2
}

// Mutate выбирает две различные случайные позиции всей последовательности.
// Если позиции лежат на разных линиях, обмениваются значения станций:
// дорожка задач не меняется, поэтому предшествование сохраняется. Если
// позиции на одной линии, обмениваются задачи (станции остаются на местах),
// и обмен принимается только при сохранении предшествования. Попытка,
// которая ничего не изменила бы, повторяется, всего до retries попыток.
// Возвращает false, если особь не изменилась.
func Mutate(inst *line.Instance, ind line.Individual, retries int, rng *rand.Rand) bool {
	n := ind.Len()
	if n < 2 {
		return false
	}
	for try := 0; try < retries; try++ {
		i := rng.Intn(n)
		j := rng.Intn(n - 1)
		if j >= i {
			j++
		}
		if (i < inst.Line1) != (j < inst.Line1) {
			if ind.Stations[i] == ind.Stations[j] {
				continue
			}
			ind.Stations[i], ind.Stations[j] = ind.Stations[j], ind.Stations[i]
			return true
		}
		l := 1
		if i >= inst.Line1 {
			l = 2
		}
		start, end := inst.Segment(l)

		ind.Tasks[i], ind.Tasks[j] = ind.Tasks[j], ind.Tasks[i]
		if line.RespectsPrecedence(ind.Tasks[start:end], inst.Constraints(l)) {
			return true
		}
		ind.Tasks[i], ind.Tasks[j] = ind.Tasks[j], ind.Tasks[i]
	}
	return false
}

// RepairZoning просматривает пары позиций i<j каждой особи. Если обе
// станции попадают в одну группу (номер станции, делённый на число задач
// первой линии) и пара задач не связана предшествованием, значения
// станций меняются местами. Дорожка задач не трогается, поэтому
// допустимость по предшествованию сохраняется.
//
// Основной режим - один проход (passes = 1). Каждый следующий проход
// применяет то же жадное правило к результату предыдущего; правило не
// сходится к неподвижной точке, и повторные проходы могут отменять
// обмены предыдущих. passes лишь ограничивает работу; обход
// останавливается раньше только если за проход не случилось ни одного
// обмена различных станций. Возвращает число таких обменов.
func RepairZoning(inst *line.Instance, zi line.ZoningIndex, pop []line.Individual, passes int) int {
	swaps := 0
	for _, ind := range pop {
		n := ind.Len()
		for pass := 0; pass < passes; pass++ {
			changed := false
			for i := 0; i < n-1; i++ {
				for j := i + 1; j < n; j++ {
					si, sj := ind.Stations[i], ind.Stations[j]
					if si == sj || si/inst.Line1 != sj/inst.Line1 {
						continue
					}
					if zi.Positive(ind.Tasks[i], ind.Tasks[j]) {
						continue
					}
					ind.Stations[i], ind.Stations[j] = sj, si
					changed = true
					swaps++
				}
			}
			if !changed {
				break
			}
		}
	}
	return swaps
}

// SelectElite возвращает индексы k лучших особей (по возрастанию значения
// целевой функции, при равенстве - в исходном порядке).
func SelectElite(scores []float64, k int) []int {
	idxs := make([]int, len(scores))
	initPermutation(idxs, 0)
	sort.SliceStable(idxs, func(i, j int) bool {
		return scores[idxs[i]] < scores[idxs[j]]
	})
	if k > len(idxs) {
		k = len(idxs)
	}
	return idxs[:k]
}
