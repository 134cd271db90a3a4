package proximity

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/container"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
)

// BinLattice 均匀网格分桶索引
// 功能：将空间划分为divX*divY*divZ个网格，Token按位置存入对应网格，查询只访问相交网格
// 说明：网格覆盖以center为中心、各轴总长为dimensions的长方体；超出范围的位置归入边界网格
type BinLattice struct {
	center     geometry.Vec3
	dimensions geometry.Vec3
	cellSize   geometry.Vec3
	div        [3]int

	cells []*container.IndexedArray[*Token]
	count int // 已分配未释放的Token数（含未登记位置的）
}

// NewBinLattice 创建网格索引
// 参数：center-网格中心，dimensions-各轴总长（正数），divX/divY/divZ-各轴网格数（至少为1）
// 返回：索引与错误
func NewBinLattice(center, dimensions geometry.Vec3, divX, divY, divZ int) (*BinLattice, error) {
	if !center.IsFinite() || !dimensions.IsFinite() {
		return nil, fmt.Errorf("proximity: lattice center/dimensions must be finite, got %v/%v", center, dimensions)
	}
	if dimensions.X <= 0 || dimensions.Y <= 0 || dimensions.Z <= 0 {
		return nil, fmt.Errorf("proximity: lattice dimensions must be positive, got %v", dimensions)
	}
	if divX < 1 || divY < 1 || divZ < 1 {
		return nil, fmt.Errorf("proximity: lattice divisions must be at least 1, got %d/%d/%d", divX, divY, divZ)
	}
	d := &BinLattice{
		center:     center,
		dimensions: dimensions,
		cellSize: geometry.Vec3{
			X: dimensions.X / float64(divX),
			Y: dimensions.Y / float64(divY),
			Z: dimensions.Z / float64(divZ),
		},
		div: [3]int{divX, divY, divZ},
	}
	d.cells = lo.Times(divX*divY*divZ, func(int) *container.IndexedArray[*Token] {
		return container.NewIndexedArray[*Token]()
	})
	return d, nil
}

func (d *BinLattice) String() string {
	return fmt.Sprintf("BinLattice{center=%v, dims=%v, div=%v, count=%d}", d.center, d.dimensions, d.div, d.count)
}

func (d *BinLattice) Kind() Kind {
	return KindBinLattice
}

func (d *BinLattice) Count() int {
	return d.count
}

// axisCell 单轴网格坐标
// 算法说明：floor((v - c + dim/2) / size)，截断到[0, n-1]；NaN归入0号网格
func axisCell(v, c, dim, size float64, n int) int {
	f := math.Floor((v - c + dim/2) / size)
	if math.IsNaN(f) {
		return 0
	}
	return int(lo.Clamp(f, 0, float64(n-1)))
}

// cellCoord 位置对应的三轴网格坐标
func (d *BinLattice) cellCoord(p geometry.Vec3) [3]int {
	return [3]int{
		axisCell(p.X, d.center.X, d.dimensions.X, d.cellSize.X, d.div[0]),
		axisCell(p.Y, d.center.Y, d.dimensions.Y, d.cellSize.Y, d.div[1]),
		axisCell(p.Z, d.center.Z, d.dimensions.Z, d.cellSize.Z, d.div[2]),
	}
}

func (d *BinLattice) cellIndex(c [3]int) int {
	return (c[0]*d.div[1]+c[1])*d.div[2] + c[2]
}

// CellOf 位置所在网格的线性下标
func (d *BinLattice) CellOf(p geometry.Vec3) int {
	return d.cellIndex(d.cellCoord(p))
}

func (d *BinLattice) AllocateToken(ref any) *Token {
	d.count++
	return newToken(d, ref)
}

// update 登记新位置，只有网格变化时才在网格间移动
func (d *BinLattice) update(t *Token, p geometry.Vec3) {
	cell := d.CellOf(p)
	switch {
	case !t.placed:
		d.cells[cell].Add(t)
		t.placed = true
	case t.cell != cell:
		d.cells[t.cell].Remove(t)
		d.cells[cell].Add(t)
	}
	t.cell = cell
	t.position = p
}

func (d *BinLattice) remove(t *Token) {
	if t.placed {
		d.cells[t.cell].Remove(t)
	}
	d.count--
}

// FindNeighbors 查询center半径radius内的登记者
// 算法说明：求查询球包围盒两角的网格坐标（已截断），遍历其间所有网格并按欧氏距离精确过滤
func (d *BinLattice) FindNeighbors(center geometry.Vec3, radius float64, out []any) []any {
	if !(radius > 0) {
		return out
	}
	r := geometry.Vec3{X: radius, Y: radius, Z: radius}
	low, high := d.cellCoord(center.Sub(r)), d.cellCoord(center.Add(r))
	r2 := radius * radius
	for i := low[0]; i <= high[0]; i++ {
		for j := low[1]; j <= high[1]; j++ {
			for k := low[2]; k <= high[2]; k++ {
				for _, t := range d.cells[d.cellIndex([3]int{i, j, k})].Data() {
					if geometry.DistanceSquared(t.position, center) <= r2 {
						out = append(out, t.ref)
					}
				}
			}
		}
	}
	return out
}
