package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/lcpsim/internal/dynamo"
	"github.com/san-kum/lcpsim/internal/lcp"
)

type ExportData struct {
	Scenario   string             `json:"scenario"`
	Mode       dynamo.Mode        `json:"mode"`
	Controller string             `json:"controller"`
	Params     lcp.Params         `json:"params"`
	Initial    dynamo.State       `json:"initial"`
	Steps      int                `json:"steps"`
	Times      []float64          `json:"times"`
	Fields     []string           `json:"fields"`
	Trajectory []lcp.Solved       `json:"trajectory"`
	Metrics    map[string]float64 `json:"metrics"`
}

// NewExportData collects a result for export. Times are the end of every step.
func NewExportData(scenario, controller string, params lcp.Params, initial dynamo.State, result *dynamo.Result) ExportData {
	data := ExportData{
		Scenario:   scenario,
		Mode:       result.Mode,
		Controller: controller,
		Params:     params,
		Initial:    initial,
		Steps:      len(result.Trajectory),
		Times:      make([]float64, len(result.Trajectory)),
		Trajectory: result.Trajectory,
		Metrics:    result.Metrics,
	}
	for i := range data.Times {
		data.Times[i] = float64(i+1) * params.Dt
	}
	if len(result.Trajectory) > 0 {
		data.Fields = lcp.Paths(result.Trajectory[0])
	}
	return data
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

func ExportJSONStdout(data ExportData) error {
	return WriteJSON(os.Stdout, data)
}
