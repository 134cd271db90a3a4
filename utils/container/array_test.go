package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/container"
)

type item struct {
	container.IndexedItemBase
	id int
}

func TestIndexedArray(t *testing.T) {
	a := container.NewIndexedArray[*item]()
	items := make([]*item, 5)
	for i := range items {
		items[i] = &item{id: i}
		a.Add(items[i])
	}
	assert.Equal(t, 5, a.Len())

	// 删除中间元素，末尾元素补位
	a.Remove(items[1])
	assert.Equal(t, 4, a.Len())
	assert.Equal(t, -1, items[1].Index())
	assert.Equal(t, items[4], a.Data()[1])
	assert.Equal(t, 1, items[4].Index())

	// 删除末尾元素
	a.Remove(items[3])
	assert.Equal(t, 3, a.Len())
	for i, x := range a.Data() {
		assert.Equal(t, i, x.Index())
	}
	ids := []int{}
	for _, x := range a.Data() {
		ids = append(ids, x.id)
	}
	assert.ElementsMatch(t, []int{0, 2, 4}, ids)

	// 重复删除
	assert.Panics(t, func() { a.Remove(items[1]) })
}

func TestIndexedArrayForeignItem(t *testing.T) {
	a := container.NewIndexedArray[*item]()
	b := container.NewIndexedArray[*item]()
	x := &item{id: 1}
	y := &item{id: 2}
	a.Add(x)
	b.Add(y)
	// y的索引为0，但a[0]是x
	assert.Panics(t, func() { a.Remove(y) })
}
