package domain

// ForecastKind distinguishes the two archive types published per base date.
type ForecastKind string

const (
	// PerturbedForecast is the ensemble run set (member axis present).
	PerturbedForecast ForecastKind = "pf"
	// ControlForecast is the single unperturbed baseline run.
	ControlForecast ForecastKind = "cf"
)

// Valid reports whether the kind is one of the two archive types.
func (k ForecastKind) Valid() bool {
	return k == PerturbedForecast || k == ControlForecast
}
