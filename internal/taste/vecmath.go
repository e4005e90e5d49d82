package taste

import "math"

// Dot возвращает скалярное произведение векторов одинаковой длины.
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm возвращает L2-норму вектора.
func Norm(v []float64) float64 {
	return math.Sqrt(Dot(v, v))
}

// Cosine возвращает косинусное сходство в [-1, 1].
// Для нулевого вектора или векторов разной длины возвращает 0 (нет сигнала).
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return Clamp(dot/(math.Sqrt(normA)*math.Sqrt(normB)), -1, 1)
}

// Normalize возвращает копию вектора единичной длины; ok == false для нулевого вектора.
func Normalize(v []float64) ([]float64, bool) {
	n := Norm(v)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, false
	}

	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / n
	}
	return out, true
}

// Sub возвращает a - b.
func Sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func Clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(lo, math.Min(hi, x))
}
