// Package prompt builds the instruction sent to every provider.
package prompt

import (
	"fmt"
	"strings"
)

const (
	// DefaultCeiling is the highest tile value the model may emit.
	DefaultCeiling = 10
	// GridSize is the side length of the requested square grid.
	GridSize = 10
	// ResultKey is the JSON key the model must put the grid under.
	ResultKey = "tiles"
)

var legend = []string{
	"Grass",
	"Flowers",
	"Sand",
	"Rocks for a grassy terrain",
	"Rocks for a sandy terrain",
	"Trees for a grassy terrain",
	"Trees for a sandy terrain",
	"Logs for a grassy terrain",
	"Logs for a sandy terrain",
	"Water",
	"Bomb",
}

// Legend returns the tile legend, indexed by tile value.
func Legend() []string {
	out := make([]string, len(legend))
	copy(out, legend)
	return out
}

// Build returns the instruction for the given setting. A ceiling <= 0 uses DefaultCeiling.
func Build(setting string, ceiling int) string {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I want you to generate a 2D %dx%d matrix populated with values 0-%d. ", GridSize, GridSize, ceiling)
	b.WriteString("The values represent an element of an environment, like so:\n\n")
	for value, name := range legend {
		fmt.Fprintf(&b, "    %d: %s\n", value, name)
	}
	fmt.Fprintf(&b, "\nConsider that this %dx%d grid will be used in Unity3D for a game. ", GridSize, GridSize)
	b.WriteString("Each element of this 2D matrix represents a tile that will be replaced in-game based on its number.\n")
	fmt.Fprintf(&b, "Now, for the prompt \"%s\", generate a 2D matrix with these values 0-%d. ", setting, ceiling)
	fmt.Fprintf(&b, "Regardless of what the prompt asks for, make sure the values of the matrix are between 0-%d ONLY.\n", ceiling)
	b.WriteString("If additional information is not specified about some remaining elements of the matrix, ")
	b.WriteString("fill it by yourself by correlating it to the prompt. ")
	fmt.Fprintf(&b, "Your response should be only the %dx%d matrix and nothing else.\n", GridSize, GridSize)
	fmt.Fprintf(&b, "Give it in a JSON string format without indentation under the key %q with the value being the 2D array. ", ResultKey)
	b.WriteString("DO NOT respond with any other text.")

	return b.String()
}
