// Package step defines the immutable specifications of one HTTP or
// produce/consume operation, and the result of executing one. Every With*
// helper returns a fully independent copy with one field overridden; a
// reference captured earlier in a chain is never affected by later calls.
package step

import "fmt"

// Kind discriminates the specification variants.
type Kind int

const (
	KindHTTP Kind = iota
	KindProduce
	KindConsume
	KindBatchProduce
	KindBatchConsume
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "HttpStep"
	case KindProduce:
		return "ProduceStep"
	case KindConsume:
		return "ConsumeStep"
	case KindBatchProduce:
		return "BatchProduceStep"
	case KindBatchConsume:
		return "BatchConsumeStep"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Spec is the closed set of step specification variants. All
// implementations are value types in this package.
type Spec interface {
	Kind() Kind
	spec()
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func withEntry(m map[string]string, name, value string) map[string]string {
	out := copyStringMap(m)
	if out == nil {
		out = make(map[string]string, 1)
	}
	out[name] = value
	return out
}
