package proximity

import (
	"fmt"

	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/container"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
)

// BruteForce 暴力遍历索引，查询为O(n)
type BruteForce struct {
	tokens *container.IndexedArray[*Token]
}

func NewBruteForce() *BruteForce {
	return &BruteForce{tokens: container.NewIndexedArray[*Token]()}
}

func (d *BruteForce) String() string {
	return fmt.Sprintf("BruteForce{count=%d}", d.Count())
}

func (d *BruteForce) Kind() Kind {
	return KindBruteForce
}

func (d *BruteForce) Count() int {
	return d.tokens.Len()
}

func (d *BruteForce) AllocateToken(ref any) *Token {
	t := newToken(d, ref)
	d.tokens.Add(t)
	return t
}

func (d *BruteForce) update(t *Token, p geometry.Vec3) {
	t.position = p
	t.placed = true
}

func (d *BruteForce) remove(t *Token) {
	d.tokens.Remove(t)
}

func (d *BruteForce) FindNeighbors(center geometry.Vec3, radius float64, out []any) []any {
	if !(radius > 0) {
		return out
	}
	r2 := radius * radius
	for _, t := range d.tokens.Data() {
		if t.placed && geometry.DistanceSquared(t.position, center) <= r2 {
			out = append(out, t.ref)
		}
	}
	return out
}
