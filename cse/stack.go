package cse

import (
	"fmt"
)

// Stack backs both the Control and the Stash of a Machine.
type Stack[T any] struct {
	tos      int
	elements []T
	Name     string
}

func NewStack[T any](name string) *Stack[T] {
	return &Stack[T]{
		tos:      -1,
		elements: make([]T, 0, 16),
		Name:     name,
	}
}

var StackUnderFlowErr = fmt.Errorf("invalid stack access: underflow")

func (stack *Stack[T]) Clone() *Stack[T] {
	ret := &Stack[T]{tos: stack.tos, Name: stack.Name}
	ret.elements = make([]T, len(stack.elements))
	copy(ret.elements, stack.elements)
	return ret
}

func (stack *Stack[T]) IsEmpty() bool {
	return stack.tos < 0
}

func (stack *Stack[T]) Size() int {
	return stack.tos + 1
}

func (stack *Stack[T]) Push(elem T) {
	stack.elements = append(stack.elements[:stack.tos+1], elem)
	stack.tos++
}

// Get returns the element n below the top; Get(0) is the top.
func (stack *Stack[T]) Get(n int) (T, error) {
	if n < 0 || stack.tos-n < 0 {
		var zero T
		return zero, StackUnderFlowErr
	}
	return stack.elements[stack.tos-n], nil
}

func (stack *Stack[T]) Pop() (T, error) {
	elem, err := stack.Get(0)
	if err != nil {
		return elem, err
	}
	var zero T
	stack.elements[stack.tos] = zero
	stack.elements = stack.elements[:stack.tos]
	stack.tos--
	return elem, nil
}

// MustPop is for pops the machine's own bookkeeping guarantees. An
// underflow there is a bug in the machine, not in the user program.
func (stack *Stack[T]) MustPop() T {
	elem, err := stack.Pop()
	if err != nil {
		panic(fmt.Sprintf("%s: %v", stack.Name, err))
	}
	return elem
}

// PopN removes the top n elements and returns them bottom first.
func (stack *Stack[T]) PopN(n int) []T {
	if n > stack.Size() {
		panic(fmt.Sprintf("%s: %v: need %d elements, have %d", stack.Name, StackUnderFlowErr, n, stack.Size()))
	}
	r := make([]T, n)
	copy(r, stack.elements[stack.tos+1-n:stack.tos+1])
	stack.TruncateToSize(stack.tos + 1 - n)
	return r
}

// set newsize to 0 to truncate everything
func (stack *Stack[T]) TruncateToSize(newsize int) {
	el := make([]T, newsize, max(newsize, 16))
	copy(el, stack.elements)
	stack.elements = el
	stack.tos = newsize - 1
}

// Elements returns a copy of the contents, bottom first.
func (stack *Stack[T]) Elements() []T {
	r := make([]T, stack.Size())
	copy(r, stack.elements[:stack.tos+1])
	return r
}
