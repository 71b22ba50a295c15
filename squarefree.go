package exactpoly

import (
	"math/big"
	"math/bits"
	"sort"
)

// MaxRadicand bounds squarefree radicands so that products of two of them
// never overflow int64 arithmetic.
const MaxRadicand = int64(1) << 40

const trialLimit = 1 << 20

// ============================================================
// Squarefree decomposition
// ============================================================

// splitSquare writes n = s^2 * f with f squarefree and returns s and f.
// n must be positive.
func splitSquare(n *big.Int) (s *big.Int, f int64, err error) {
	s = big.NewInt(1)
	rest := new(big.Int).Set(n)
	free := big.NewInt(1)
	q, r := new(big.Int), new(big.Int)
	for p := int64(2); p < trialLimit; p++ {
		bp := big.NewInt(p)
		if new(big.Int).Mul(bp, bp).Cmp(rest) > 0 {
			break
		}
		e := 0
		for {
			q.QuoRem(rest, bp, r)
			if r.Sign() != 0 {
				break
			}
			rest.Set(q)
			e++
		}
		for ; e >= 2; e -= 2 {
			s.Mul(s, bp)
		}
		if e == 1 {
			free.Mul(free, bp)
		}
	}
	if rest.Cmp(big.NewInt(1)) > 0 {
		root := new(big.Int).Sqrt(rest)
		switch {
		case new(big.Int).Mul(root, root).Cmp(rest) == 0:
			s.Mul(s, root)
		case rest.Cmp(new(big.Int).Mul(big.NewInt(trialLimit), big.NewInt(trialLimit))) < 0 || rest.ProbablyPrime(20):
			free.Mul(free, rest)
		default:
			return nil, 0, ErrRadicandTooLarge
		}
	}
	if !free.IsInt64() || free.Int64() > MaxRadicand {
		return nil, 0, ErrRadicandTooLarge
	}
	return s, free.Int64(), nil
}

// primeFactors returns the distinct primes of a squarefree n in ascending
// order.
func primeFactors(n int64) []int64 {
	var out []int64
	for p := int64(2); p*p <= n; p++ {
		if n%p == 0 {
			out = append(out, p)
			for n%p == 0 {
				n /= p
			}
		}
	}
	if n > 1 {
		out = append(out, n)
	}
	return out
}

// mulRadicands multiplies sqrt(a)*sqrt(b) for squarefree a, b and returns
// the integer factor g and squarefree radicand c with sqrt(a)*sqrt(b) = g*sqrt(c).
func mulRadicands(a, b int64) (g, c int64, err error) {
	g = gcd64(a, b)
	x, y := a/g, b/g
	hi, lo := bits.Mul64(uint64(x), uint64(y))
	if hi != 0 || lo > uint64(MaxRadicand) {
		return 0, 0, ErrRadicandTooLarge
	}
	return g, int64(lo), nil
}

func gcd64(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

// ============================================================
// Generator bases over GF(2)
// ============================================================

// GeneratorBasis picks, in ascending order, a multiplicatively independent
// subset of the squarefree radicands whose square roots generate the same
// field as all of them. Radicand 1 is ignored.
func GeneratorBasis(radicands []int64) []int64 {
	sorted := append([]int64(nil), radicands...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	primeBit := map[int64]int{}
	var rows []*big.Int
	var basis []int64
	for i, r := range sorted {
		if r <= 1 || (i > 0 && sorted[i-1] == r) {
			continue
		}
		v := new(big.Int)
		for _, p := range primeFactors(r) {
			bit, ok := primeBit[p]
			if !ok {
				bit = len(primeBit)
				primeBit[p] = bit
			}
			v.SetBit(v, bit, 1)
		}
		if reduceGF2(v, rows).Sign() != 0 {
			rows = insertGF2(rows, reduceGF2(v, rows))
			basis = append(basis, r)
		}
	}
	return basis
}

// spansRadicand reports whether r lies in the multiplicative GF(2) span of
// the generator radicands.
func spansRadicand(gens []int64, r int64) bool {
	if r == 1 {
		return true
	}
	return len(GeneratorBasis(append(append([]int64(nil), gens...), r))) == len(GeneratorBasis(gens))
}

// reduceGF2 reduces v against rows kept sorted by descending leading bit.
func reduceGF2(v *big.Int, rows []*big.Int) *big.Int {
	out := new(big.Int).Set(v)
	for _, row := range rows {
		if out.Bit(row.BitLen()-1) == 1 {
			out.Xor(out, row)
		}
	}
	return out
}

func insertGF2(rows []*big.Int, v *big.Int) []*big.Int {
	rows = append(rows, v)
	sort.Slice(rows, func(i, j int) bool { return rows[i].BitLen() > rows[j].BitLen() })
	return rows
}

// ============================================================
// Integer roots
// ============================================================

// icbrt returns the integer cube root of n >= 0 and whether it is exact.
func icbrt(n *big.Int) (*big.Int, bool) {
	if n.Sign() == 0 {
		return new(big.Int), true
	}
	lo, hi := big.NewInt(0), new(big.Int).Add(new(big.Int).Sqrt(n), big.NewInt(1))
	one := big.NewInt(1)
	for new(big.Int).Sub(hi, lo).Cmp(one) > 0 {
		mid := new(big.Int).Rsh(new(big.Int).Add(lo, hi), 1)
		c := new(big.Int).Exp(mid, big.NewInt(3), nil)
		if c.Cmp(n) <= 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, new(big.Int).Exp(lo, big.NewInt(3), nil).Cmp(n) == 0
}

// sqrtBounds returns lo <= sqrt(n) <= hi with hi - lo = 2^-k.
func sqrtBounds(n int64, k uint) (lo, hi *big.Rat) {
	scaled := new(big.Int).Lsh(big.NewInt(n), 2*k)
	root := new(big.Int).Sqrt(scaled)
	den := new(big.Int).Lsh(big.NewInt(1), k)
	lo = new(big.Rat).SetFrac(root, den)
	hi = new(big.Rat).SetFrac(new(big.Int).Add(root, big.NewInt(1)), den)
	return lo, hi
}
