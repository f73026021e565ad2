package printer

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestPrinter_Lines(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Successf("deleted %d", 2)
	p.Errorf("boom")
	p.Printf("plain")
	p.CheckItem("config", "ok")
	p.FailItem("state", "")

	assert.Equal(t, "✔ deleted 2\n✘ boom\nplain\n  ✔ config ok\n  ✘ state\n", ansi.Strip(buf.String()))
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer
	ctx := NewContext(context.Background(), New(&buf))

	Ctx(ctx).Infof("hello")
	assert.Equal(t, "● hello\n", ansi.Strip(buf.String()))

	assert.NotNil(t, Ctx(context.Background()))
}
