package binarysearchtree

import (
	"golang.org/x/exp/constraints"
)

type Node[K constraints.Ordered, V any] struct {
	key    K
	value  V
	height int
	left   *Node[K, V]
	right  *Node[K, V]
	parent *Node[K, V]
}

// Iterator points at one node, or past the end of the tree.
type Iterator[K constraints.Ordered, V any] struct {
	node *Node[K, V]
}

func (it Iterator[K, V]) End() bool {
	return it.node == nil
}

func (it Iterator[K, V]) Key() K {
	return it.node.key
}

func (it Iterator[K, V]) Value() V {
	return it.node.value
}

func (it Iterator[K, V]) Next() Iterator[K, V] {
	return Iterator[K, V]{node: successor(it.node)}
}

func (it Iterator[K, V]) Prev() Iterator[K, V] {
	return Iterator[K, V]{node: predecessor(it.node)}
}

// AVLTree is a self-balancing binary search tree keyed by any ordered type.
// Inserting an existing key replaces its value.
type AVLTree[K constraints.Ordered, V any] struct {
	root *Node[K, V]
	size int
}

func (t *AVLTree[K, V]) Len() int {
	return t.size
}

func (t *AVLTree[K, V]) Insert(key K, value V) {
	inserted := false
	t.root = insertNode(t.root, nil, key, value, &inserted)
	if inserted {
		t.size++
	}
}

func insertNode[K constraints.Ordered, V any](node, parent *Node[K, V], key K, value V, inserted *bool) *Node[K, V] {
	if node == nil {
		*inserted = true
		return &Node[K, V]{key: key, value: value, height: 1, parent: parent}
	}

	switch {
	case key < node.key:
		node.left = insertNode(node.left, node, key, value, inserted)
	case key > node.key:
		node.right = insertNode(node.right, node, key, value, inserted)
	default:
		node.value = value
		return node
	}

	return rebalance(node)
}

func (t *AVLTree[K, V]) Remove(key K) {
	removed := false
	t.root = removeNode(t.root, key, &removed)
	if t.root != nil {
		t.root.parent = nil
	}
	if removed {
		t.size--
	}
}

func removeNode[K constraints.Ordered, V any](node *Node[K, V], key K, removed *bool) *Node[K, V] {
	if node == nil {
		return nil
	}

	switch {
	case key < node.key:
		node.left = removeNode(node.left, key, removed)
	case key > node.key:
		node.right = removeNode(node.right, key, removed)
	default:
		*removed = true
		if node.left == nil {
			reparent(node.right, node.parent)
			return node.right
		}
		if node.right == nil {
			reparent(node.left, node.parent)
			return node.left
		}
		min := node.right
		for min.left != nil {
			min = min.left
		}
		node.key = min.key
		node.value = min.value
		dummy := false
		node.right = removeNode(node.right, min.key, &dummy)
	}

	if node.left != nil {
		node.left.parent = node
	}
	if node.right != nil {
		node.right.parent = node
	}
	return rebalance(node)
}

func (t *AVLTree[K, V]) Search(key K) Iterator[K, V] {
	node := t.root
	for node != nil {
		switch {
		case key < node.key:
			node = node.left
		case key > node.key:
			node = node.right
		default:
			return Iterator[K, V]{node: node}
		}
	}
	return Iterator[K, V]{}
}

// FloorCeil returns iterators to the largest key <= key and the smallest
// key >= key. On an exact hit both point at the same node. Either side may
// be End() when no such key exists.
func (t *AVLTree[K, V]) FloorCeil(key K) (floor, ceil Iterator[K, V]) {
	node := t.root
	for node != nil {
		switch {
		case key < node.key:
			ceil = Iterator[K, V]{node: node}
			node = node.left
		case key > node.key:
			floor = Iterator[K, V]{node: node}
			node = node.right
		default:
			it := Iterator[K, V]{node: node}
			return it, it
		}
	}
	return floor, ceil
}

func (t *AVLTree[K, V]) Min() Iterator[K, V] {
	node := t.root
	if node == nil {
		return Iterator[K, V]{}
	}
	for node.left != nil {
		node = node.left
	}
	return Iterator[K, V]{node: node}
}

func (t *AVLTree[K, V]) Max() Iterator[K, V] {
	node := t.root
	if node == nil {
		return Iterator[K, V]{}
	}
	for node.right != nil {
		node = node.right
	}
	return Iterator[K, V]{node: node}
}

func (t *AVLTree[K, V]) InOrderTraverse(f func(K, V)) {
	inOrderTraverse(t.root, f)
}

func inOrderTraverse[K constraints.Ordered, V any](n *Node[K, V], f func(K, V)) {
	if n == nil {
		return
	}
	inOrderTraverse(n.left, f)
	f(n.key, n.value)
	inOrderTraverse(n.right, f)
}

func height[K constraints.Ordered, V any](n *Node[K, V]) int {
	if n == nil {
		return 0
	}
	return n.height
}

func balanceFactor[K constraints.Ordered, V any](n *Node[K, V]) int {
	return height(n.left) - height(n.right)
}

func fixHeight[K constraints.Ordered, V any](n *Node[K, V]) {
	hl, hr := height(n.left), height(n.right)
	if hl > hr {
		n.height = hl + 1
	} else {
		n.height = hr + 1
	}
}

func reparent[K constraints.Ordered, V any](n, parent *Node[K, V]) {
	if n != nil {
		n.parent = parent
	}
}

func rotateRight[K constraints.Ordered, V any](n *Node[K, V]) *Node[K, V] {
	l := n.left
	l.parent = n.parent
	n.left = l.right
	reparent(n.left, n)
	l.right = n
	n.parent = l
	fixHeight(n)
	fixHeight(l)
	return l
}

func rotateLeft[K constraints.Ordered, V any](n *Node[K, V]) *Node[K, V] {
	r := n.right
	r.parent = n.parent
	n.right = r.left
	reparent(n.right, n)
	r.left = n
	n.parent = r
	fixHeight(n)
	fixHeight(r)
	return r
}

func rebalance[K constraints.Ordered, V any](n *Node[K, V]) *Node[K, V] {
	fixHeight(n)
	switch bf := balanceFactor(n); {
	case bf > 1:
		if balanceFactor(n.left) < 0 {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	case bf < -1:
		if balanceFactor(n.right) > 0 {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	}
	return n
}

func successor[K constraints.Ordered, V any](n *Node[K, V]) *Node[K, V] {
	if n == nil {
		return nil
	}
	if n.right != nil {
		n = n.right
		for n.left != nil {
			n = n.left
		}
		return n
	}
	for n.parent != nil && n.parent.right == n {
		n = n.parent
	}
	return n.parent
}

func predecessor[K constraints.Ordered, V any](n *Node[K, V]) *Node[K, V] {
	if n == nil {
		return nil
	}
	if n.left != nil {
		n = n.left
		for n.right != nil {
			n = n.right
		}
		return n
	}
	for n.parent != nil && n.parent.left == n {
		n = n.parent
	}
	return n.parent
}
