package rng

// Sequence 按固定序列返回值的随机源，测试中用于精确复现结算过程。
// 序列用尽后循环使用；空序列恒返回 0。
type Sequence struct {
	values []float64
	next   int
}

// NewSequence 创建固定序列随机源，取值应位于 [0, 1)
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) Float64() float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// IntN 取下一个值并映射到 [0, n)
func (s *Sequence) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(s.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Consumed 已消耗的取值次数
func (s *Sequence) Consumed() int {
	return s.next
}
