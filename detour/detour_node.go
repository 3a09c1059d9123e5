package detour

import (
	"container/heap"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	DT_NODE_OPEN   = 0x01
	DT_NODE_CLOSED = 0x02
)

// DT_NULL_IDX terminates a node hash chain.
const DT_NULL_IDX = -1

type DtNode struct {
	Pos   mgl32.Vec3 ///< Position of the node.
	Cost  float32    ///< Cost from previous node to current node.
	Total float32    ///< Cost up to the node.
	Pidx  int        ///< Index+1 of the parent node, 0 for none.
	Flags uint8      ///< Node flags. A combination of DT_NODE_OPEN and DT_NODE_CLOSED.
	Id    DtPolyRef  ///< Polygon ref the node corresponds to.

	idx       int
	heapIndex int
}

func dtHashRef(a DtPolyRef) uint32 {
	a += ^(a << 15)
	a ^= a >> 10
	a += a << 3
	a ^= a >> 6
	a += ^(a << 11)
	a ^= a >> 16
	return uint32(a)
}

// DtNodePool owns the search nodes of one query, hashed by poly ref.
type DtNodePool struct {
	nodes     []DtNode
	first     []int
	next      []int
	maxNodes  int
	hashSize  int
	nodeCount int
}

func nextPow2(v int) int {
	n := 1
	for n < v {
		n <<= 1
	}
	return n
}

func NewDtNodePool(maxNodes, hashSize int) *DtNodePool {
	hashSize = nextPow2(max(hashSize, 1))
	p := &DtNodePool{
		nodes:    make([]DtNode, maxNodes),
		next:     make([]int, maxNodes),
		first:    make([]int, hashSize),
		maxNodes: maxNodes,
		hashSize: hashSize,
	}
	p.Clear()
	return p
}

func (p *DtNodePool) Clear() {
	for i := range p.first {
		p.first[i] = DT_NULL_IDX
	}
	p.nodeCount = 0
}

func (p *DtNodePool) GetMaxNodes() int  { return p.maxNodes }
func (p *DtNodePool) GetNodeCount() int { return p.nodeCount }

// GetNodeIdx returns the 1 based index of node, 0 for nil.
func (p *DtNodePool) GetNodeIdx(node *DtNode) int {
	if node == nil {
		return 0
	}
	return node.idx + 1
}

func (p *DtNodePool) GetNodeAtIdx(idx int) *DtNode {
	if idx <= 0 || idx > p.nodeCount {
		return nil
	}
	return &p.nodes[idx-1]
}

// FindNode returns the node of ref if it was visited.
func (p *DtNodePool) FindNode(id DtPolyRef) *DtNode {
	bucket := int(dtHashRef(id) & uint32(p.hashSize-1))
	for i := p.first[bucket]; i != DT_NULL_IDX; i = p.next[i] {
		if p.nodes[i].Id == id {
			return &p.nodes[i]
		}
	}
	return nil
}

// GetNode returns the node of ref, allocating it on first use. It returns
// nil when the pool is exhausted.
func (p *DtNodePool) GetNode(id DtPolyRef) *DtNode {
	if n := p.FindNode(id); n != nil {
		return n
	}
	if p.nodeCount >= p.maxNodes {
		return nil
	}
	i := p.nodeCount
	p.nodeCount++

	// Init node
	p.nodes[i] = DtNode{Id: id, idx: i, heapIndex: -1}

	bucket := int(dtHashRef(id) & uint32(p.hashSize-1))
	p.next[i] = p.first[bucket]
	p.first[bucket] = i
	return &p.nodes[i]
}

// DtNodeQueue is the A* open list: lowest total first, ties by poly ref.
type DtNodeQueue struct {
	heap []*DtNode
}

func NewDtNodeQueue(capacity int) *DtNodeQueue {
	return &DtNodeQueue{heap: make([]*DtNode, 0, capacity)}
}

func (q *DtNodeQueue) Len() int { return len(q.heap) }

func (q *DtNodeQueue) Less(i, j int) bool {
	a, b := q.heap[i], q.heap[j]
	if a.Total != b.Total {
		return a.Total < b.Total
	}
	return a.Id < b.Id
}

func (q *DtNodeQueue) Swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
	q.heap[i].heapIndex = i
	q.heap[j].heapIndex = j
}

func (q *DtNodeQueue) Push(x any) {
	n := x.(*DtNode)
	n.heapIndex = len(q.heap)
	q.heap = append(q.heap, n)
}

func (q *DtNodeQueue) Pop() any {
	old := q.heap
	n := old[len(old)-1]
	old[len(old)-1] = nil
	q.heap = old[:len(old)-1]
	n.heapIndex = -1
	return n
}

func (q *DtNodeQueue) Clear() {
	clear(q.heap)
	q.heap = q.heap[:0]
}

func (q *DtNodeQueue) Empty() bool { return len(q.heap) == 0 }

func (q *DtNodeQueue) Top() *DtNode { return q.heap[0] }

func (q *DtNodeQueue) PushNode(n *DtNode) { heap.Push(q, n) }

func (q *DtNodeQueue) PopNode() *DtNode { return heap.Pop(q).(*DtNode) }

// ModifyNode restores the heap order after n's total changed.
func (q *DtNodeQueue) ModifyNode(n *DtNode) {
	if n.heapIndex >= 0 {
		heap.Fix(q, n.heapIndex)
	}
}
