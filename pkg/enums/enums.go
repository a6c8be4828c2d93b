// Package enums holds the closed string sets persisted by the storefront.
package enums

import "fmt"

type stringEnum interface {
	~string
}

func contains[T stringEnum](values []T, candidate T) bool {
	for _, v := range values {
		if v == candidate {
			return true
		}
	}
	return false
}

func parse[T stringEnum](values []T, raw, kind string) (T, error) {
	for _, v := range values {
		if string(v) == raw {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}
