package recall

import (
	"math"
	"math/rand"
	"sort"
)

// 子空间迭代次数；交互矩阵规模较小，固定次数足以收敛到前 k 个奇异子空间
const svdIterations = 60

// truncatedSVD 对稠密矩阵 a (m×n) 做秩 k 截断 SVD，返回 U·Σ (m×k) 与 V (n×k)。
//
// 算法（随机子空间迭代）：
//  1. Q (n×k) 随机初始化并正交化
//  2. 重复 Q ← orth(Aᵀ(A·Q))
//  3. B = A·Q，S = BᵀB (k×k)
//  4. S 做 Jacobi 特征分解 S = W·Λ·Wᵀ，按特征值降序
//  5. V = Q·W，U·Σ = B·W
//
// 结果满足 (U·Σ)·Vᵀ ≈ A，与常见 TruncatedSVD 的 fit_transform / components_ 一致。
func truncatedSVD(a [][]float64, k int, rng *rand.Rand) (us, v [][]float64) {
	m := len(a)
	if m == 0 {
		return nil, nil
	}
	n := len(a[0])

	q := make([][]float64, n)
	for i := range q {
		q[i] = make([]float64, k)
		for j := range q[i] {
			q[i][j] = rng.NormFloat64()
		}
	}
	orthonormalize(q, rng)

	for iter := 0; iter < svdIterations; iter++ {
		y := matMul(a, q)       // m×k
		z := matMulTransA(a, y) // n×k
		orthonormalize(z, rng)
		q = z
	}

	b := matMul(a, q)       // m×k
	s := matMulTransA(b, b) // k×k
	vals, vecs := jacobiEigen(s)

	order := make([]int, k)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return vals[order[i]] > vals[order[j]] })
	w := make([][]float64, k)
	for r := 0; r < k; r++ {
		w[r] = make([]float64, k)
		for c, src := range order {
			w[r][c] = vecs[r][src]
		}
	}

	return matMul(b, w), matMul(q, w)
}

// matMul 返回 a (r×p) · b (p×c)。
func matMul(a, b [][]float64) [][]float64 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	cols := len(b[0])
	out := make([][]float64, len(a))
	for i, row := range a {
		out[i] = make([]float64, cols)
		for p, x := range row {
			if x == 0 {
				continue
			}
			for j := 0; j < cols; j++ {
				out[i][j] += x * b[p][j]
			}
		}
	}
	return out
}

// matMulTransA 返回 aᵀ (p×r) · b (r×c)。
func matMulTransA(a, b [][]float64) [][]float64 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	p := len(a[0])
	cols := len(b[0])
	out := make([][]float64, p)
	for i := range out {
		out[i] = make([]float64, cols)
	}
	for r, row := range a {
		for i, x := range row {
			if x == 0 {
				continue
			}
			for j := 0; j < cols; j++ {
				out[i][j] += x * b[r][j]
			}
		}
	}
	return out
}

// orthonormalize 对矩阵的列做修正 Gram-Schmidt 正交化（原地）。
// 退化列用随机向量替换后重新正交化。
func orthonormalize(mat [][]float64, rng *rand.Rand) {
	if len(mat) == 0 {
		return
	}
	rows, cols := len(mat), len(mat[0])
	for j := 0; j < cols; j++ {
		for attempt := 0; attempt < 5; attempt++ {
			for prev := 0; prev < j; prev++ {
				var dot float64
				for i := 0; i < rows; i++ {
					dot += mat[i][j] * mat[i][prev]
				}
				for i := 0; i < rows; i++ {
					mat[i][j] -= dot * mat[i][prev]
				}
			}
			var norm float64
			for i := 0; i < rows; i++ {
				norm += mat[i][j] * mat[i][j]
			}
			norm = math.Sqrt(norm)
			if norm > 1e-10 {
				for i := 0; i < rows; i++ {
					mat[i][j] /= norm
				}
				break
			}
			for i := 0; i < rows; i++ {
				mat[i][j] = rng.NormFloat64()
			}
		}
	}
}

// jacobiEigen 对称矩阵的循环 Jacobi 特征分解。
// 返回特征值与特征向量（按列存放：vecs[r][c] 为第 c 个特征向量的第 r 个分量）。
func jacobiEigen(s [][]float64) ([]float64, [][]float64) {
	n := len(s)
	a := make([][]float64, n)
	v := make([][]float64, n)
	for i := range a {
		a[i] = append([]float64(nil), s[i]...)
		v[i] = make([]float64, n)
		v[i][i] = 1
	}

	for sweep := 0; sweep < 100; sweep++ {
		var off float64
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				off += a[i][j] * a[i][j]
			}
		}
		if off < 1e-22 {
			break
		}
		for p := 0; p < n; p++ {
			for q := p + 1; q < n; q++ {
				if math.Abs(a[p][q]) < 1e-300 {
					continue
				}
				theta := (a[q][q] - a[p][p]) / (2 * a[p][q])
				t := 1 / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				if theta < 0 {
					t = -t
				}
				c := 1 / math.Sqrt(t*t+1)
				sn := t * c

				for k := 0; k < n; k++ {
					akp, akq := a[k][p], a[k][q]
					a[k][p] = c*akp - sn*akq
					a[k][q] = sn*akp + c*akq
				}
				for k := 0; k < n; k++ {
					apk, aqk := a[p][k], a[q][k]
					a[p][k] = c*apk - sn*aqk
					a[q][k] = sn*apk + c*aqk
				}
				for k := 0; k < n; k++ {
					vkp, vkq := v[k][p], v[k][q]
					v[k][p] = c*vkp - sn*vkq
					v[k][q] = sn*vkp + c*vkq
				}
			}
		}
	}

	vals := make([]float64, n)
	for i := range vals {
		vals[i] = a[i][i]
	}
	return vals, v
}
