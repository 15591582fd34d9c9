package heuristics

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// 逆变换采样，使用代理自己的随机数源以保证可复现
func uniformOpen(rng *rand.Rand) float64 {
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	return u
}

// Normal 从N(mean, sd²)采样，sd<=0时返回mean
func Normal(rng *rand.Rand, mean, sd float64) float64 {
	if sd <= 0 {
		return mean
	}
	return distuv.Normal{Mu: mean, Sigma: sd}.Quantile(uniformOpen(rng))
}

// SkewNormal 偏态正态分布采样，shape<0向左偏，shape>0向右偏
func SkewNormal(rng *rand.Rand, loc, scale, shape float64) float64 {
	if scale <= 0 {
		return loc
	}
	delta := shape / math.Sqrt(1+shape*shape)
	u0 := distuv.UnitNormal.Quantile(uniformOpen(rng))
	u1 := distuv.UnitNormal.Quantile(uniformOpen(rng))
	z := delta*math.Abs(u0) + math.Sqrt(1-delta*delta)*u1
	return loc + scale*z
}

// 按权重选择下标，负权重按0处理，全为0时返回0
func pick(rng *rand.Rand, weights ...float64) int {
	total := 0.0
	for _, w := range weights {
		total += math.Max(w, 0)
	}
	if total == 0 {
		return 0
	}
	r := rng.Float64() * total
	cum := 0.0
	for i, w := range weights {
		cum += math.Max(w, 0)
		if r <= cum {
			return i
		}
	}
	return len(weights) - 1
}
