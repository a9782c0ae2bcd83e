package params

import (
	"fmt"

	"github.com/NESII/goregrid/aggregate"
	"github.com/NESII/goregrid/grid"
	"github.com/ghodss/yaml"
)

// Output modes for the root worker's result.
const (
	OutputDisplay = "display"
	OutputSave    = "save"
)

// RegridParameters obtained from the YAML input file. This is the single
// configuration value threaded into every component entry point; nothing reads
// run-wide toggles from ambient state.
type RegridParameters struct {
	Title        string `yaml:"Title"`
	Variable     string `yaml:"Variable"`     // which source array to interpolate
	Strategy     string `yaml:"Strategy"`     // PlanAndPlace or GatherConcatenate
	MemoryLayout string `yaml:"MemoryLayout"` // RowMajor or ColumnMajor
	Output       string `yaml:"Output"`       // display or save
	OutputFile   string `yaml:"OutputFile"`
	Verbose      bool   `yaml:"Verbose"`
}

// Defaults mirrors the demo workflow: interpolate "dpc" with the placement
// gather on column-major local storage.
func Defaults() *RegridParameters {
	return &RegridParameters{
		Title:        "Parallel regrid",
		Variable:     "dpc",
		Strategy:     "PlanAndPlace",
		MemoryLayout: "ColumnMajor",
		Output:       OutputDisplay,
		OutputFile:   "regrid_out.nc",
	}
}

func (rp *RegridParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, rp)
}

// Validate reports configuration errors. It must be called, and must pass,
// before any collective begins.
func (rp *RegridParameters) Validate() error {
	if rp.Variable == "" {
		return fmt.Errorf("no interpolation variable named")
	}
	if _, err := aggregate.NewStrategy(rp.Strategy); err != nil {
		return err
	}
	if _, err := grid.NewLayout(rp.MemoryLayout); err != nil {
		return err
	}
	switch rp.Output {
	case OutputDisplay, OutputSave:
	default:
		return fmt.Errorf("unknown output mode %q (display, save)", rp.Output)
	}
	if rp.Output == OutputSave && rp.OutputFile == "" {
		return fmt.Errorf("output mode save needs an OutputFile")
	}
	return nil
}

func (rp *RegridParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", rp.Title)
	fmt.Printf("[%s]\t\t\t= Variable\n", rp.Variable)
	fmt.Printf("[%s]\t\t= Strategy\n", rp.Strategy)
	fmt.Printf("[%s]\t\t= Memory Layout\n", rp.MemoryLayout)
	fmt.Printf("[%s]\t\t= Output\n", rp.Output)
	if rp.Output == OutputSave {
		fmt.Printf("[%s]\t= Output File\n", rp.OutputFile)
	}
}
