package algo

// 搜索过程中单个节点的状态，生命周期仅限一次搜索
type Wrapper[ET any] struct {
	Node     int
	Cost     float64 // 起点到该点的当前最优代价
	PrevNode int     // 前驱节点，起点为NO_PREV
	PrevEdge ET      // 从前驱到达该点使用的边
	HasPrev  bool
}

// 扩展得到的一个邻居
type Neighbor[ET any] struct {
	Node int
	Edge ET
	Cost float64 // 边代价，可以依赖入边（cur.PrevEdge）
}

// Expander 返回cur的全部可达邻居，代价为负或为Inf的邻居会被忽略
type Expander[ET any] func(cur *Wrapper[ET]) []Neighbor[ET]

// 路径中的一项，EdgeAttr为离开该点的边，终点项的EdgeAttr为零值
type PathItem[ET any] struct {
	Node     int
	EdgeAttr ET
}
