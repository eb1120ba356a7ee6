// Package rng 提供可注入、可复现的随机源。
// 每场战斗持有独立的随机源，同一种子和同一行动序列得到完全相同的结算结果。
package rng

import (
	"math/rand/v2"
)

// Source 随机源
type Source interface {
	// Float64 返回 [0, 1) 内的随机数
	Float64() float64
	// IntN 返回 [0, n) 内的随机整数，n <= 0 时返回 0
	IntN(n int) int
}

// Rand 基于 PCG 的种子随机源，非并发安全，由所属战斗的锁保护
type Rand struct {
	r *rand.Rand
}

// New 以种子创建随机源
func New(seed uint64) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *Rand) Float64() float64 {
	return s.r.Float64()
}

func (s *Rand) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return s.r.IntN(n)
}

// Chance 以概率 p 返回 true
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Float64() < p
}

// Between 返回 [lo, hi] 内的随机整数
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}
