/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"runtime"

	"github.com/NESII/goregrid/driver"
	"github.com/NESII/goregrid/grid"
	"github.com/NESII/goregrid/params"
	"github.com/NESII/goregrid/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type ModelRegrid struct {
	NP         int
	ParamsFile string
	SourceFile string
	DestFile   string
	Verbose    bool
}

// RegridCmd represents the regrid command
var RegridCmd = &cobra.Command{
	Use:   "regrid",
	Short: "Interpolate a source grid variable onto a destination grid in parallel",
	Long: `Interpolate a source grid variable onto a destination grid in parallel

Source and destination grids are NetCDF files holding "lat" and "lon" arrays on
(y, x) dimensions; the source additionally holds the interpolation variable.
With no grid files, a built-in demo grid pair is regridded.`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		mr := &ModelRegrid{}
		mr.NP, _ = cmd.Flags().GetInt("np")
		if mr.ParamsFile, err = cmd.Flags().GetString("paramsFile"); err != nil {
			panic(err)
		}
		mr.SourceFile, _ = cmd.Flags().GetString("sourceFile")
		mr.DestFile, _ = cmd.Flags().GetString("destFile")
		mr.Verbose, _ = cmd.Flags().GetBool("verbose")
		rp := processInput(mr)
		RunRegrid(mr, rp)
	},
}

func processInput(mr *ModelRegrid) (rp *params.RegridParameters) {
	rp = params.Defaults()
	if len(mr.ParamsFile) != 0 {
		var data []byte
		var err error
		if data, err = ioutil.ReadFile(mr.ParamsFile); err != nil {
			panic(err)
		}
		if err = rp.Parse(data); err != nil {
			panic(err)
		}
	}
	if mr.Verbose {
		rp.Verbose = true
	}
	if err := rp.Validate(); err != nil {
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "RUC to NAM"
Variable: dpc
Strategy: PlanAndPlace # Can be "GatherConcatenate"
MemoryLayout: ColumnMajor # Can be "RowMajor"
Output: display # Can be "save"
OutputFile: regrid_out.nc
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	if (len(mr.SourceFile) == 0) != (len(mr.DestFile) == 0) {
		fmt.Println("error: supply both --sourceFile and --destFile, or neither for the demo grids")
		os.Exit(1)
	}
	return
}

func init() {
	rootCmd.AddCommand(RegridCmd)
	RegridCmd.Flags().IntP("np", "n", runtime.NumCPU(), "number of parallel workers")
	RegridCmd.Flags().StringP("paramsFile", "I", "", "YAML file for run parameters like:\n\t- Variable\n\t- Strategy")
	RegridCmd.Flags().StringP("sourceFile", "F", "", "source grid NetCDF file")
	RegridCmd.Flags().StringP("destFile", "D", "", "destination grid NetCDF file")
	RegridCmd.Flags().BoolP("verbose", "v", false, "per-rank progress logging")
}

func RunRegrid(mr *ModelRegrid, rp *params.RegridParameters) {
	var (
		src, dst *grid.Grid
		err      error
	)
	log := logrus.New()
	if rp.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	if len(mr.SourceFile) != 0 {
		log.Infof("Loading data from %s and %s...", mr.SourceFile, mr.DestFile)
		if src, err = store.ReadGrid(mr.SourceFile, rp.Variable); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		if dst, err = store.ReadGrid(mr.DestFile); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	} else {
		log.Info("No grid files given, using demo grids...")
		src, dst = demoGrids(rp.Variable)
	}
	if rp.Verbose {
		rp.Print()
	}

	result, err := driver.Run(rp, src, dst, mr.NP, log)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	switch rp.Output {
	case params.OutputSave:
		log.Infof("Saving to %s...", rp.OutputFile)
		if err = store.WriteResult(rp.OutputFile, result); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	default:
		store.Display(os.Stdout, result)
	}
}

// demoGrids builds a coarse source grid with a smooth field and a finer,
// spatially wider destination grid, so the demo output shows the zero border
// left by unmapped points.
func demoGrids(variable string) (src, dst *grid.Grid) {
	src = store.Synthetic(60, 80, 25, 50, -125, -65, variable,
		func(lat, lon float64) float64 { return lat + 0.5*lon })
	dst = store.Synthetic(90, 110, 20, 55, -135, -55, "", nil)
	return
}
