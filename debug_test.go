package msglisten

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	p := NewPoll[string]()
	dump := &bytes.Buffer{}

	d := &Dump[string]{
		Sink: p,
		Dump: dump,
	}
	d.PushMessage("m1")
	d.PushMessage("m2")

	require.Equal(t, "P:m1\nP:m2\n", dump.String())
	require.Equal(t, 2, p.Len())
}

func TestDumpFilter(t *testing.T) {
	p := NewPoll[int]()
	dump := &bytes.Buffer{}

	d := &Dump[int]{
		Sink:   p,
		Dump:   dump,
		Filter: func(m int) bool { return m%2 == 0 },
	}
	for i := 1; i <= 4; i++ {
		d.PushMessage(i)
	}

	require.Equal(t, "P:2\nP:4\n", dump.String())
	require.Equal(t, 4, p.Len())
}
