package settlement

import "github.com/shopspring/decimal"

// Split divides pool equally between n winners in whole cents. Every winner gets the floor of
// the share; the leftover cents go one each to the first winners, in order. The shares always
// sum to the pool truncated to cents.
func Split(pool decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}

	cents := pool.Shift(2).IntPart()
	if cents < 0 {
		cents = 0
	}
	base, rem := cents/int64(n), cents%int64(n)

	shares := make([]decimal.Decimal, n)
	for i := range shares {
		c := base
		if int64(i) < rem {
			c++
		}
		shares[i] = decimal.New(c, -2)
	}
	return shares
}
