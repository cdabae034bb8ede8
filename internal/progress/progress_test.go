package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledProgressIsNop(t *testing.T) {
	var out bytes.Buffer
	p := New(false, &out)

	bar := p.Bar("Normalizing", 0)
	bar.Increment()
	bar.SetTotal(10)
	bar.Done()
	p.Wait()

	assert.Equal(t, Nop(), bar)
	assert.Empty(t, out.String())
}

func TestEnabledProgressCompletes(t *testing.T) {
	var out bytes.Buffer
	p := New(true, &out)

	known := p.Bar("Extracting", 3)
	for range 3 {
		known.Increment()
	}
	known.Done()

	open := p.Bar("Normalizing", 0)
	open.Increment()
	open.Increment()
	open.Done()

	// Wait returns only once both bars are complete
	p.Wait()
}

func TestOrNop(t *testing.T) {
	assert.Equal(t, Nop(), OrNop(nil))

	var p *Progress
	assert.Equal(t, Nop(), p.Bar("x", 1))
	p.Wait()
}
