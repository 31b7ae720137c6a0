package pytree

// Visitor is called for each node of a walk. Returning false skips the
// node's children.
type Visitor func(n *Node) bool

// Walk visits root and its descendants in pre-order, children left to right.
// The walk uses an explicit stack, so deeply nested sources cannot exhaust
// the goroutine stack.
func Walk(root *Node, visit Visitor) {
	if root == nil {
		return
	}

	stack := []*Node{root}

	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if curr == nil || !visit(curr) {
			continue
		}

		pushReversedChildren(curr, &stack)
	}
}

// VisitPreOrder is Walk without pruning.
func VisitPreOrder(root *Node, fn func(*Node)) {
	Walk(root, func(n *Node) bool {
		fn(n)

		return true
	})
}

// Find returns the nodes for which predicate holds, in pre-order.
func Find(root *Node, predicate func(*Node) bool) []*Node {
	var found []*Node

	VisitPreOrder(root, func(n *Node) {
		if predicate(n) {
			found = append(found, n)
		}
	})

	return found
}

func pushReversedChildren(n *Node, stack *[]*Node) {
	for i := len(n.Children) - 1; i >= 0; i-- {
		*stack = append(*stack, n.Children[i])
	}
}
