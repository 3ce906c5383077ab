package scope_test

import (
	"sync/atomic"

	"github.com/joshuapare/scopekit/scope"
)

// widget is the pooled object type used across the package tests.
type widget struct {
	scope.Node
	id    int64
	notes []string
}

func newWidgetFactory(name string) (*scope.FactoryOf[*widget], error) {
	var seq atomic.Int64
	return scope.RegisterOf(name, func() *widget {
		return &widget{id: seq.Add(1)}
	}, scope.WithCleanup(func(obj scope.Pooled) {
		obj.(*widget).notes = obj.(*widget).notes[:0]
	}))
}

// pair is a composite with pooled parts; its Move forwards to them.
type pair struct {
	scope.Node
	left, right *widget
}

func (p *pair) Move(e *scope.Env, s scope.Space) bool {
	if !p.Node.Move(e, s) {
		return false
	}
	var l, r scope.Movable
	if p.left != nil {
		l = p.left
	}
	if p.right != nil {
		r = p.right
	}
	scope.MoveAll(e, s, l, r)
	return true
}
