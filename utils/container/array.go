package container

// IIndexedItem 支持O(1)删除的元素接口
// 功能：定义元素必须实现的索引管理方法
// 说明：元素自己记录在数组中的位置，删除时直接定位，不需要遍历
type IIndexedItem interface {
	Index() int         // 获取元素的索引
	SetIndex(index int) // 设置元素的索引
}

// IndexedItemBase 元素基类
// 功能：提供索引管理的基础实现
// 说明：可以作为其他结构体的嵌入字段，快速实现IIndexedItem接口
type IndexedItemBase struct {
	index int // 元素在数组中的索引，-1表示不在任何数组中
}

// Index 获取元素的索引
func (b *IndexedItemBase) Index() int {
	return b.index
}

// SetIndex 设置元素的索引
func (b *IndexedItemBase) SetIndex(index int) {
	b.index = index
}

// IndexedArray 无序数组，支持O(1)添加与删除
// 功能：维护一个无序元素集合，删除时用末尾元素填补空位
// 说明：元素顺序不稳定；同一元素同一时刻只能属于一个IndexedArray
type IndexedArray[T IIndexedItem] struct {
	data []T // 主数据数组
}

// NewIndexedArray 创建数组
func NewIndexedArray[T IIndexedItem]() *IndexedArray[T] {
	return &IndexedArray[T]{
		data: make([]T, 0),
	}
}

// Len 获取当前数组长度
func (a *IndexedArray[T]) Len() int {
	return len(a.data)
}

// Data 获取原始数据
// 说明：返回内部切片，调用者不得修改，也不得在遍历时增删元素
func (a *IndexedArray[T]) Data() []T {
	return a.data
}

// Add 添加元素
// 功能：将元素追加到数组末尾并记录其索引
func (a *IndexedArray[T]) Add(value T) {
	value.SetIndex(len(a.data))
	a.data = append(a.data, value)
}

// Remove 删除元素
// 功能：将末尾元素移动到被删除元素的位置，然后截断数组
// 参数：value-要删除的元素
// 算法说明：
// 1. 校验元素索引确实指向自身，否则说明元素不属于本数组，直接panic
// 2. 末尾元素填补空位并更新其索引
// 3. 截断数组，清空被删除元素的索引
func (a *IndexedArray[T]) Remove(value T) {
	ind := value.Index()
	if ind < 0 || ind >= len(a.data) || any(a.data[ind]) != any(value) {
		log.Panicf("container: remove item (index=%d) not in array (len=%d)", ind, len(a.data))
	}
	last := len(a.data) - 1
	if ind != last {
		a.data[ind] = a.data[last]
		a.data[ind].SetIndex(ind)
	}
	var zero T
	a.data[last] = zero // 避免内存泄漏
	a.data = a.data[:last]
	value.SetIndex(-1)
}
