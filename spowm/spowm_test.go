package spowm

import (
	"errors"
	"fmt"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arvid220u/powm/powmerr"
)

// p3072 is a 3072-bit safe prime.
const p3072 = "CE9E0307D2AE75BDBEEC3E0A6E71A279417B56C955C602FFFD067586BACFDAC3BCC49A49EB4D126F5E9255E57C14F3E09492B6496EC8AC1366FC4BB7F678573FA2767E6547FA727FC0E631AA6F155195C035AF7273F31DFAE1166D1805C8522E95F9AF9CE33239BF3B68111141C20026673A6C8B9AD5FA8372ED716799FE05C0BB6EAF9FCA1590BD9644DBEFAA77BA01FD1C0D4F2D53BAAE965B1786EC55961A8E2D3E4FE8505914A408D50E6B99B71CDA78D8F9AF1A662512F8C4C3A9E72AC72D40AE5D4A0E6571135CBBAAE08C7A2AA0892F664549FA7EEC81BA912743F3E584AC2B2092243C4A17EC98DF079D8EECB8B885E6BBAFA452AAFA8CB8C08024EFF28DE4AF4AC710DCD3D66FD88212101BCB412BCA775F94A2DCE18B1A6452D4CF818B6D099D4505E0040C57AE1F3E84F2F8E07A69C0024C05ACE05666A6B63B0695904478487E78CD0704C14461F24636D7A3F267A654EEDCF8789C7F627C72B4CBD54EED6531C0E54E325D6F09CB648AE9185A7BDA6553E40B125C78E5EAA867"

func mustHex(t testing.TB, s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		t.Fatalf("bad hex %q", s)
	}
	return n
}

func ints(vs ...int64) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = big.NewInt(v)
	}
	return out
}

// naiveSpowm multiplies independent modular powers.
func naiveSpowm(bases, exponents []*big.Int, modulus *big.Int) *big.Int {
	r := big.NewInt(1)
	tmp := new(big.Int)
	for i := range bases {
		tmp.Exp(bases[i], exponents[i], modulus)
		r.Mul(r, tmp).Mod(r, modulus)
	}
	return r
}

func randomInts(rnd *rand.Rand, n int, bits uint) []*big.Int {
	limit := new(big.Int).Lsh(big.NewInt(1), bits)
	out := make([]*big.Int, n)
	for i := range out {
		out[i] = new(big.Int).Rand(rnd, limit)
	}
	return out
}

func TestSpowmSmall(t *testing.T) {
	tests := []struct {
		name      string
		bases     []*big.Int
		exponents []*big.Int
		modulus   int64
		want      int64
	}{
		{"one base", ints(2), ints(4), 13, 3},
		{"two bases", ints(5, 7), ints(3, 9), 13, 12},
		{"five bases", ints(5, 7, 8, 11, 12), ints(3, 9, 4, 12, 2), 13, 12},
		{"empty", nil, nil, 13, 1},
		{"zero exponents", ints(5, 7), ints(0, 0), 13, 1},
		{"negative base", ints(-2), ints(3), 13, 5},
		{"even modulus", ints(3, 5), ints(7, 3), 64, 31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := big.NewInt(tt.modulus)
			got, err := Spowm(tt.bases, tt.exponents, m)
			require.NoError(t, err)
			want := naiveSpowm(tt.bases, tt.exponents, m)
			require.Equal(t, 0, got.Cmp(want), "got %v, oracle %v", got, want)
			require.Equal(t, tt.want, got.Int64())
		})
	}
}

func TestSpowmRandom(t *testing.T) {
	rnd := rand.New(rand.NewSource(10))
	p := mustHex(t, p3072)
	for _, n := range []int{1, 2, 3, 7, 8, 9, 17, 30} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			bases := randomInts(rnd, n, 3072)
			exponents := randomInts(rnd, n, 256)
			got, err := Spowm(bases, exponents, p)
			require.NoError(t, err)
			require.Equal(t, 0, got.Cmp(naiveSpowm(bases, exponents, p)))
			require.True(t, got.Sign() >= 0 && got.Cmp(p) < 0)
		})
	}
}

func TestSpowmUnevenExponentLengths(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	m := big.NewInt(1000003)
	bases := randomInts(rnd, 11, 64)
	exponents := []*big.Int{big.NewInt(0), big.NewInt(1)}
	for len(exponents) < len(bases) {
		exponents = append(exponents, new(big.Int).Rand(rnd, new(big.Int).Lsh(big.NewInt(1), uint(8*len(exponents)))))
	}
	got, err := Spowm(bases, exponents, m)
	require.NoError(t, err)
	require.Equal(t, 0, got.Cmp(naiveSpowm(bases, exponents, m)))
}

func TestSpowmParameterErrors(t *testing.T) {
	m := big.NewInt(13)
	tests := []struct {
		name      string
		bases     []*big.Int
		exponents []*big.Int
		modulus   *big.Int
	}{
		{"length mismatch", ints(2, 3), ints(4), m},
		{"length mismatch empty", nil, ints(4), m},
		{"modulus one", ints(2), ints(4), big.NewInt(1)},
		{"modulus zero", ints(2), ints(4), big.NewInt(0)},
		{"modulus nil", ints(2), ints(4), nil},
		{"negative exponent", ints(2), ints(-4), m},
		{"nil base", []*big.Int{nil}, ints(4), m},
		{"nil exponent", ints(2), []*big.Int{nil}, m},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Spowm(tt.bases, tt.exponents, tt.modulus)
			require.Nil(t, res)
			var pe *powmerr.ParameterError
			require.True(t, errors.As(err, &pe), "unexpected error %v", err)
		})
	}
}

func TestTableReuse(t *testing.T) {
	rnd := rand.New(rand.NewSource(12))
	p := mustHex(t, p3072)
	bases := randomInts(rnd, 10, 3072)
	tab, err := NewTable(bases, p)
	require.NoError(t, err)
	require.Equal(t, 10, tab.Len())
	require.Equal(t, 0, tab.Modulus().Cmp(p))
	for i := 0; i < 3; i++ {
		exponents := randomInts(rnd, 10, 128)
		got, err := tab.Spowm(exponents)
		require.NoError(t, err)
		fresh, err := Spowm(bases, exponents, p)
		require.NoError(t, err)
		require.Equal(t, 0, got.Cmp(fresh))
	}
	_, err = tab.Spowm(randomInts(rnd, 9, 128))
	var pe *powmerr.ParameterError
	require.True(t, errors.As(err, &pe))
}

func TestSpowmDoesNotModifyInputs(t *testing.T) {
	bases := ints(123456789, -5)
	exponents := ints(65537, 3)
	m := big.NewInt(1000000007)
	_, err := Spowm(bases, exponents, m)
	require.NoError(t, err)
	require.Equal(t, int64(123456789), bases[0].Int64())
	require.Equal(t, int64(-5), bases[1].Int64())
	require.Equal(t, int64(65537), exponents[0].Int64())
	require.Equal(t, int64(1000000007), m.Int64())
}

func BenchmarkSpowm(b *testing.B) {
	rnd := rand.New(rand.NewSource(100))
	p := mustHex(b, p3072)
	for _, n := range []int{4, 20} {
		bases := randomInts(rnd, n, 3072)
		exponents := randomInts(rnd, n, 3072)
		b.Run(fmt.Sprintf("naive-%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				naiveSpowm(bases, exponents, p)
			}
		})
		b.Run(fmt.Sprintf("spowm-%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Spowm(bases, exponents, p); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
