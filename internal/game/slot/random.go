package slot

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
)

// RandomGenerator 均匀随机整数源
type RandomGenerator interface {
	// Intn 返回 [0, n) 内的均匀随机整数，n 必须大于0
	Intn(n int) int
}

// CryptoRandomGenerator 加密安全的随机数生成器，可并发使用
type CryptoRandomGenerator struct {
	r *mrand.Rand
}

// NewCryptoRandomGenerator 创建加密随机数生成器
func NewCryptoRandomGenerator() *CryptoRandomGenerator {
	return &CryptoRandomGenerator{r: mrand.New(cryptoSource{})}
}

// Intn 生成 [0, n) 内的随机整数
func (g *CryptoRandomGenerator) Intn(n int) int {
	return g.r.IntN(n)
}

// cryptoSource 以 crypto/rand 为底层的 rand.Source
type cryptoSource struct{}

func (cryptoSource) Uint64() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// SeededRandomGenerator 可复现的伪随机数生成器（非并发安全）
type SeededRandomGenerator struct {
	seed uint64
	r    *mrand.Rand
}

// NewSeededRandomGenerator 根据种子创建生成器，相同种子产生相同序列
func NewSeededRandomGenerator(seed uint64) *SeededRandomGenerator {
	return &SeededRandomGenerator{
		seed: seed,
		r:    mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Intn 生成 [0, n) 内的随机整数
func (g *SeededRandomGenerator) Intn(n int) int {
	return g.r.IntN(n)
}

// Seed 返回种子
func (g *SeededRandomGenerator) Seed() uint64 {
	return g.seed
}
