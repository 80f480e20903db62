package osal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintfWritesFormattedMessage(t *testing.T) {
	var buf bytes.Buffer
	old := printfWriter
	printfWriter = &buf
	defer func() { printfWriter = old }()

	Printf("hello %s, count=%d", "world", 3)
	assert.Equal(t, "hello world, count=3", buf.String())
}

func TestPrintfTruncatesAtBufferSize(t *testing.T) {
	var buf bytes.Buffer
	old := printfWriter
	printfWriter = &buf
	defer func() { printfWriter = old }()

	Printf("%s", strings.Repeat("x", BufferSize+50))
	assert.Equal(t, BufferSize-1, buf.Len())
}
