// Package options checks mutually exclusive inputs shared across packages.
package options

import (
	"fmt"
	"strings"
)

// Source is one way of supplying an input, such as a file path or inline content.
type Source struct {
	Name string
	Set  bool
}

// Count returns the number of sources that are set.
func Count(sources ...Source) int {
	n := 0
	for _, s := range sources {
		if s.Set {
			n++
		}
	}
	return n
}

// ExactlyOne returns an error unless exactly one of sources is set, e.g.
// "exactly one of file or content must be provided (got 2)".
func ExactlyOne(sources ...Source) error {
	if n := Count(sources...); n != 1 {
		return fmt.Errorf("exactly one of %s must be provided (got %d)", names(sources), n)
	}
	return nil
}

// AtMostOne returns an error when more than one of sources is set.
func AtMostOne(sources ...Source) error {
	if n := Count(sources...); n > 1 {
		return fmt.Errorf("at most one of %s may be provided (got %d)", names(sources), n)
	}
	return nil
}

func names(sources []Source) string {
	list := make([]string, len(sources))
	for i, s := range sources {
		list[i] = s.Name
	}
	if len(list) < 2 {
		return strings.Join(list, "")
	}
	return strings.Join(list[:len(list)-1], ", ") + " or " + list[len(list)-1]
}
