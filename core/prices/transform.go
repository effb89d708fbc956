package prices

// Transform adjusts a converted price (currency/kWh), e.g. for tariffs and
// taxes. Installed once at store construction.
type Transform func(price float64) float64

// Identity returns the price unchanged.
func Identity(price float64) float64 { return price }

// Affine builds a transform applying a fixed per-kWh surcharge followed by a
// multiplicative rate: (price + offset) * factor.
func Affine(offset, factor float64) Transform {
	return func(price float64) float64 {
		return (price + offset) * factor
	}
}
