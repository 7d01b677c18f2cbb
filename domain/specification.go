package domain

// Predicate is a single filter criterion.
type Predicate[T any] func(T) bool

// Specification is a conjunction of predicates. The zero value matches everything.
// Specifications are values: Where and And return a new specification and never
// modify the receiver.
type Specification[T any] struct {
	criteria []Predicate[T]
}

// Where returns a specification matching v only when both the receiver and pred match.
func (s Specification[T]) Where(pred Predicate[T]) Specification[T] {
	if pred == nil {
		return s
	}
	next := make([]Predicate[T], 0, len(s.criteria)+1)
	next = append(next, s.criteria...)
	next = append(next, pred)
	return Specification[T]{criteria: next}
}

// And combines two specifications with a logical AND.
func (s Specification[T]) And(other Specification[T]) Specification[T] {
	next := make([]Predicate[T], 0, len(s.criteria)+len(other.criteria))
	next = append(next, s.criteria...)
	next = append(next, other.criteria...)
	return Specification[T]{criteria: next}
}

// IsSatisfiedBy evaluates every criterion against v.
func (s Specification[T]) IsSatisfiedBy(v T) bool {
	for _, c := range s.criteria {
		if !c(v) {
			return false
		}
	}
	return true
}

// Len returns the number of criteria.
func (s Specification[T]) Len() int {
	return len(s.criteria)
}
