package issues

import (
	"strings"
	"sync"
)

// maxPooledBuilder is the largest builder capacity returned to the pool.
const maxPooledBuilder = 4 << 10

var builders = sync.Pool{New: func() any { return new(strings.Builder) }}

func getStringBuilder() *strings.Builder {
	sb := builders.Get().(*strings.Builder)
	sb.Reset()
	return sb
}

func putStringBuilder(sb *strings.Builder) {
	if sb == nil || sb.Cap() > maxPooledBuilder {
		return
	}
	builders.Put(sb)
}
