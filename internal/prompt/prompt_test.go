package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuild_ContainsSettingAndLegend(t *testing.T) {
	settings := []string{
		"a quiet beach at sunset",
		"minefield in the desert",
		`a "quoted" forest with 🌲 and
a newline`,
		"100% water, no % signs escaped",
	}

	for _, setting := range settings {
		t.Run(setting, func(t *testing.T) {
			got := Build(setting, DefaultCeiling)

			assert.Contains(t, got, setting)
			for value, name := range Legend() {
				assert.Contains(t, got, fmt.Sprintf("%d: %s", value, name))
			}
			assert.Contains(t, got, "10x10")
			assert.Contains(t, got, `under the key "tiles"`)
			assert.Contains(t, got, "without indentation")
			assert.Contains(t, got, "between 0-10 ONLY")
		})
	}
}

func TestBuild_Deterministic(t *testing.T) {
	assert.Equal(t, Build("volcano island", 10), Build("volcano island", 10))
	assert.NotEqual(t, Build("volcano island", 10), Build("glacier", 10))
}

func TestBuild_Ceiling(t *testing.T) {
	assert.Contains(t, Build("x", 5), "values 0-5.")
	assert.Contains(t, Build("x", 5), "between 0-5 ONLY")

	assert.Equal(t, Build("x", DefaultCeiling), Build("x", 0))
	assert.Equal(t, Build("x", DefaultCeiling), Build("x", -3))
}

func TestLegend(t *testing.T) {
	l := Legend()
	assert.Len(t, l, DefaultCeiling+1)
	assert.Equal(t, "Grass", l[0])
	assert.Equal(t, "Water", l[9])
	assert.Equal(t, "Bomb", l[10])

	l[0] = "Lava"
	assert.Equal(t, "Grass", Legend()[0])
	assert.False(t, strings.Contains(Build("x", 10), "Lava"))
}
