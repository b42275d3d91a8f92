package ga

import "fmt"

type Config struct {
	Population     int
	Generations    int
	Elite          int
	TournamentSize int
	CrossoverRate  float64
	MutationRate   float64

	// MutationRetries ограничивает число попыток найти допустимый обмен.
	MutationRetries int
	// InitRetries ограничивает число случайных перемешиваний линии при
	// инициализации; после этого используется топологический порядок.
	InitRetries int
	// ZoningPasses - максимальное число проходов восстановления зонирования.
	ZoningPasses int
	// PlateauGenerations - ранняя остановка после стольких поколений без
	// улучшения; 0 отключает.
	PlateauGenerations int
	// Workers - число горутин для оценки популяции; 0 - последовательно.
	Workers int
}

func (c Config) Validate() error {
	if c.Population <= 1 {
		return fmt.Errorf(
			"размер популяции должен быть > 1 (получено %d)",
			c.Population,
		)
	}
	if c.Generations < 0 {
		return fmt.Errorf(
			"количество поколений должно быть >= 0 (получено %d)",
			c.Generations,
		)
	}
	if c.Elite < 0 || c.Elite >= c.Population {
		return fmt.Errorf(
			"число элитных особей должно быть в диапазоне [0, population) (получено %d)",
			c.Elite,
		)
	}
	if c.TournamentSize <= 0 {
		return fmt.Errorf(
			"размер турнира должен быть > 0 (получено %d)",
			c.TournamentSize,
		)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return fmt.Errorf(
			"вероятность кроссовера должна быть в диапазоне [0,1] (получено %f)",
			c.CrossoverRate,
		)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf(
			"вероятность мутации должна быть в диапазоне [0,1] (получено %f)",
			c.MutationRate,
		)
	}
	if c.MutationRetries <= 0 {
		return fmt.Errorf(
			"число попыток мутации должно быть > 0 (получено %d)",
			c.MutationRetries,
		)
	}
	if c.InitRetries <= 0 {
		return fmt.Errorf(
			"число попыток инициализации должно быть > 0 (получено %d)",
			c.InitRetries,
		)
	}
	if c.ZoningPasses < 0 {
		return fmt.Errorf(
			"число проходов зонирования должно быть >= 0 (получено %d)",
			c.ZoningPasses,
		)
	}
	if c.PlateauGenerations < 0 {
		return fmt.Errorf(
			"длина плато должна быть >= 0 (получено %d)",
			c.PlateauGenerations,
		)
	}
	if c.Workers < 0 {
		return fmt.Errorf(
			"число воркеров должно быть >= 0 (получено %d)",
			c.Workers,
		)
	}
	return nil
}

func DefaultConfig() Config {
	return Config{
		Population:      10,
		Generations:     50,
		Elite:           2,
		TournamentSize:  3,
		CrossoverRate:   1.0,
		MutationRate:    0.2,
		MutationRetries: 10,
		InitRetries:     1000,
		ZoningPasses:    1,
	}
}
