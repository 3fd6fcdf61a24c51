// Package store writes a finished run as a single JSON document.
package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/milnesim/internal/config"
	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/stepsize"
)

type ExportData struct {
	Equation    string              `json:"equation"`
	Starter     []string            `json:"starter,omitempty"`
	MaxErr      float64             `json:"max_err"`
	Policy      string              `json:"policy"`
	H           float64             `json:"h"`
	FinalH      float64             `json:"final_h"`
	Refinements int                 `json:"refinements"`
	Steps       int                 `json:"steps"`
	Samples     []dynamo.Sample     `json:"samples"`
	Trace       []dynamo.StepResult `json:"trace"`
	Epochs      []dynamo.Epoch      `json:"epochs"`
	Warnings    []dynamo.Warning    `json:"warnings"`
	Search      *stepsize.Result    `json:"search,omitempty"`
	Metrics     map[string]float64  `json:"metrics"`
}

func NewExportData(cfg *config.Config, result *dynamo.Result, search *stepsize.Result) ExportData {
	data := ExportData{
		Equation:    cfg.Equation,
		Starter:     cfg.Starter,
		MaxErr:      cfg.MaxErr,
		Policy:      cfg.Policy,
		H:           cfg.Dynamo().H,
		FinalH:      result.H,
		Refinements: result.Refinements,
		Steps:       result.StepsTaken,
		Samples:     result.Samples,
		Trace:       result.Steps,
		Epochs:      result.Epochs,
		Warnings:    result.Warnings,
		Search:      search,
		Metrics:     result.Metrics,
	}
	if len(cfg.Seeds) > 0 {
		data.Starter = nil
	}
	if len(result.Epochs) > 0 {
		data.H = result.Epochs[0].H
	}
	if data.Warnings == nil {
		data.Warnings = []dynamo.Warning{}
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
