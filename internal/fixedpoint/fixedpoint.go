// Package fixedpoint provides the signed arbitrary-precision integers used
// for every monetary and ratio quantity in the indexer. Ratio and price
// values carry an X96 suffix and are scaled by Q96 = 2^96.
//
// All division truncates toward zero (big.Int.Quo semantics). Results feed
// downstream financial reporting, so the rounding direction must not change.
package fixedpoint

import (
	"fmt"
	"math/big"
)

// Int is an immutable arbitrary-precision signed integer. The zero value
// represents 0 and is ready to use. Arithmetic methods return new values and
// never mutate their receiver or arguments.
type Int struct {
	v *big.Int
}

// Q96 is the fixed-point scale constant 2^96.
var Q96 = Int{v: new(big.Int).Lsh(big.NewInt(1), 96)}

// Zero is the additive identity.
var Zero = Int{}

// New returns an Int holding the given value.
func New(v int64) Int {
	return Int{v: big.NewInt(v)}
}

// FromBig returns an Int holding a copy of v.
func FromBig(v *big.Int) Int {
	if v == nil {
		return Int{}
	}
	return Int{v: new(big.Int).Set(v)}
}

// Parse reads a base-10 integer string.
func Parse(s string) (Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Int{}, fmt.Errorf("fixedpoint: invalid integer %q", s)
	}
	return Int{v: v}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Int {
	i, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return i
}

func (a Int) big() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

// Big returns a copy of the underlying value.
func (a Int) Big() *big.Int {
	return new(big.Int).Set(a.big())
}

func (a Int) Plus(b Int) Int {
	return Int{v: new(big.Int).Add(a.big(), b.big())}
}

func (a Int) Minus(b Int) Int {
	return Int{v: new(big.Int).Sub(a.big(), b.big())}
}

func (a Int) Times(b Int) Int {
	return Int{v: new(big.Int).Mul(a.big(), b.big())}
}

// Div divides truncating toward zero. Panics on a zero divisor; use
// DivOrZero where the divisor may legitimately be zero.
func (a Int) Div(b Int) Int {
	return Int{v: new(big.Int).Quo(a.big(), b.big())}
}

// DivOrZero divides truncating toward zero, returning zero when the divisor
// is zero. Every division in the reducers whose divisor can be zero
// (liquidity, baseBalance, baseBalancePerShareX96) goes through here.
func (a Int) DivOrZero(b Int) Int {
	if b.IsZero() {
		return Int{}
	}
	return a.Div(b)
}

// MulDiv computes a*b/den without intermediate truncation. den must be
// non-zero; MulDivOrZero guards the zero case.
func (a Int) MulDiv(b, den Int) Int {
	n := new(big.Int).Mul(a.big(), b.big())
	return Int{v: n.Quo(n, den.big())}
}

// MulDivOrZero is MulDiv with a zero result on a zero denominator.
func (a Int) MulDivOrZero(b, den Int) Int {
	if den.IsZero() {
		return Int{}
	}
	return a.MulDiv(b, den)
}

func (a Int) Abs() Int {
	return Int{v: new(big.Int).Abs(a.big())}
}

func (a Int) Neg() Int {
	return Int{v: new(big.Int).Neg(a.big())}
}

// Cmp returns -1, 0, or +1.
func (a Int) Cmp(b Int) int {
	return a.big().Cmp(b.big())
}

func (a Int) Equal(b Int) bool {
	return a.Cmp(b) == 0
}

// Sign returns -1, 0, or +1.
func (a Int) Sign() int {
	return a.big().Sign()
}

func (a Int) IsZero() bool {
	return a.v == nil || a.v.Sign() == 0
}

func (a Int) String() string {
	return a.big().String()
}

// MarshalJSON encodes as a base-10 string so values survive stores that
// cannot hold integers wider than 64 bits.
func (a Int) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.big().String() + `"`), nil
}

func (a *Int) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		a.v = nil
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("fixedpoint: invalid integer %q", s)
	}
	a.v = v
	return nil
}

// Max returns the larger of a and b.
func Max(a, b Int) Int {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min(a, b Int) Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}
