package ontology

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no element matches a lookup.
	ErrNotFound = errors.New("ontology element not found")
	// ErrAmbiguous is returned when a title lookup matches more than one element.
	ErrAmbiguous = errors.New("ontology element is ambiguous")
	// ErrTypeMismatch is returned when a hash matches an element of another kind.
	ErrTypeMismatch = errors.New("ontology element has unexpected type")
)

// ChildByHash finds the element below root with the given feature hash.
// It fails if none matches or if the match is not a T.
func ChildByHash[T Element](root Element, hash string) (T, error) {
	var zero T
	var found []Element
	walk(root, func(e Element) {
		if e.FeatureHash() == hash {
			found = append(found, e)
		}
	})
	if len(found) == 0 {
		return zero, fmt.Errorf("%w: feature hash %q", ErrNotFound, hash)
	}

	var matches []T
	for _, e := range found {
		if t, ok := e.(T); ok {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return zero, fmt.Errorf("%w: feature hash %q is a %T, want %T", ErrTypeMismatch, hash, found[0], zero)
	case 1:
		return matches[0], nil
	}
	return zero, fmt.Errorf("%w: feature hash %q matches %d elements", ErrAmbiguous, hash, len(matches))
}

// ChildByTitle finds the single element of type T below root with the given
// title. It fails if zero or several elements match.
func ChildByTitle[T Element](root Element, title string) (T, error) {
	var zero T
	matches := ChildrenByTitle[T](root, title)
	switch len(matches) {
	case 0:
		return zero, fmt.Errorf("%w: %T titled %q", ErrNotFound, zero, title)
	case 1:
		return matches[0], nil
	}
	return zero, fmt.Errorf("%w: %d elements titled %q", ErrAmbiguous, len(matches), title)
}

// ChildrenByTitle returns every element of type T below root with the given title.
func ChildrenByTitle[T Element](root Element, title string) []T {
	var matches []T
	walk(root, func(e Element) {
		if t, ok := e.(T); ok && e.Title() == title {
			matches = append(matches, t)
		}
	})
	return matches
}
