package sa

import "fmt"

// Тип окрестности
type Neighborhood string

const (
	// Мутация GA: обмен задач внутри линии или станций между линиями
	NeighborhoodSwap Neighborhood = "swap"
	// Перенос одной позиции на другую станцию
	NeighborhoodStation Neighborhood = "station"
	// Случайный выбор одной из двух окрестностей
	NeighborhoodMixed Neighborhood = "mixed"
)

type Config struct {
	Iterations        int
	IterationsPerTask int

	InitialTemp float64
	FinalTemp   float64
	Alpha       float64

	Neighborhood Neighborhood
	// SwapRetries ограничивает поиск допустимого обмена в окрестности swap.
	SwapRetries int
}

func DefaultConfig() Config {
	return Config{
		Iterations:        0,
		IterationsPerTask: 500,

		InitialTemp: 50.0,
		FinalTemp:   0.05,
		Alpha:       0.999,

		Neighborhood: NeighborhoodMixed,
		SwapRetries:  10,
	}
}

func (c Config) Validate() error {
	if c.Iterations <= 0 && c.IterationsPerTask <= 0 {
		return fmt.Errorf(
			"должно быть задано Iterations > 0 или IterationsPerTask > 0",
		)
	}
	if c.InitialTemp <= 0 {
		return fmt.Errorf(
			"InitialTemp должно быть > 0 (получено %f)",
			c.InitialTemp,
		)
	}
	if c.FinalTemp <= 0 {
		return fmt.Errorf(
			"FinalTemp должно быть > 0 (получено %f)",
			c.FinalTemp,
		)
	}
	if c.FinalTemp >= c.InitialTemp {
		return fmt.Errorf(
			"FinalTemp должно быть < InitialTemp (получено %f >= %f)",
			c.FinalTemp,
			c.InitialTemp,
		)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf(
			"alpha должно лежать в интервале (0,1) (получено %f)",
			c.Alpha,
		)
	}
	if c.SwapRetries <= 0 {
		return fmt.Errorf(
			"SwapRetries должно быть > 0 (получено %d)",
			c.SwapRetries,
		)
	}
	switch c.Neighborhood {
	case NeighborhoodSwap, NeighborhoodStation, NeighborhoodMixed:
		// ok
	default:
		return fmt.Errorf(
			"неизвестный тип окрестности %q",
			c.Neighborhood,
		)
	}
	return nil
}
