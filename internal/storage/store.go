// Package storage keeps finished runs on disk: one directory per run with a
// metadata.json summary and a samples.csv trace.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/milnesim/internal/config"
	"github.com/san-kum/milnesim/internal/dynamo"
)

var ErrRunNotFound = errors.New("storage: run not found")

var samplesHeader = []string{"x", "y", "y_prime", "predicted", "corrected", "discrepancy", "h", "epoch"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Equation    string             `json:"equation"`
	Timestamp   time.Time          `json:"timestamp"`
	Starter     []string           `json:"starter,omitempty"`
	Seeded      bool               `json:"seeded"`
	X0          float64            `json:"x0"`
	Y0          float64            `json:"y0"`
	TargetX     float64            `json:"target_x"`
	H           float64            `json:"h"`
	FinalH      float64            `json:"final_h"`
	MaxErr      float64            `json:"max_err"`
	Policy      string             `json:"policy"`
	Refinements int                `json:"refinements"`
	StepsTaken  int                `json:"steps_taken"`
	Final       dynamo.Sample      `json:"final"`
	Epochs      []dynamo.Epoch     `json:"epochs"`
	Warnings    []dynamo.Warning   `json:"warnings,omitempty"`
	Metrics     map[string]float64 `json:"metrics"`
}

// SampleRow is one line of samples.csv. Seed samples have no step, so
// HasStep is false and the step columns are zero.
type SampleRow struct {
	X           float64
	Y           float64
	YPrime      float64
	HasStep     bool
	Predicted   float64
	Corrected   float64
	Discrepancy float64
	H           float64
	Epoch       int
}

func (s *Store) Save(cfg *config.Config, result *dynamo.Result) (string, error) {
	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	dcfg := cfg.Dynamo()
	meta := RunMetadata{
		ID:          runID,
		Equation:    cfg.Equation,
		Timestamp:   time.Now().UTC(),
		Starter:     cfg.Starter,
		Seeded:      len(cfg.Seeds) > 0,
		X0:          dcfg.X0,
		Y0:          dcfg.Y0,
		TargetX:     dcfg.TargetX,
		H:           dcfg.H,
		FinalH:      result.H,
		MaxErr:      dcfg.MaxErr,
		Policy:      string(dcfg.Policy),
		Refinements: result.Refinements,
		StepsTaken:  result.StepsTaken,
		Final:       result.Final(),
		Epochs:      result.Epochs,
		Warnings:    result.Warnings,
		Metrics:     result.Metrics,
	}
	if meta.Seeded {
		meta.Starter = nil
	}
	if len(result.Epochs) > 0 {
		meta.H = result.Epochs[0].H
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeSamples(filepath.Join(runDir, "samples.csv"), Rows(result)); err != nil {
		return "", err
	}

	return runID, nil
}

// Rows flattens a result into samples.csv rows, seeds first.
func Rows(result *dynamo.Result) []SampleRow {
	seeds := len(result.Samples) - len(result.Steps)
	rows := make([]SampleRow, 0, len(result.Samples))

	h0 := result.H
	if len(result.Epochs) > 0 {
		h0 = result.Epochs[0].H
	}
	for _, smp := range result.Samples[:seeds] {
		rows = append(rows, SampleRow{X: smp.X, Y: smp.Y, YPrime: smp.YPrime, H: h0})
	}

	epoch, left := 0, -1
	if len(result.Epochs) > 0 {
		left = result.Epochs[0].Steps
	}
	for i, r := range result.Steps {
		for left == 0 && epoch+1 < len(result.Epochs) {
			epoch++
			left = result.Epochs[epoch].Steps
		}
		left--

		smp := result.Samples[seeds+i]
		rows = append(rows, SampleRow{
			X:           smp.X,
			Y:           smp.Y,
			YPrime:      smp.YPrime,
			HasStep:     true,
			Predicted:   r.Predicted,
			Corrected:   r.Corrected,
			Discrepancy: r.Discrepancy,
			H:           r.H,
			Epoch:       epoch,
		})
	}
	return rows
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeSamples(path string, rows []SampleRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(samplesHeader); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{formatFloat(r.X), formatFloat(r.Y), formatFloat(r.YPrime), "", "", "", formatFloat(r.H), strconv.Itoa(r.Epoch)}
		if r.HasStep {
			record[3] = formatFloat(r.Predicted)
			record[4] = formatFloat(r.Corrected)
			record[5] = formatFloat(r.Discrepancy)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", metaPath, err)
	}

	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]SampleRow, error) {
	csvPath := filepath.Join(s.baseDir, runID, "samples.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(samplesHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []SampleRow{}, nil
	}

	rows := make([]SampleRow, 0, len(records)-1)
	for i, record := range records[1:] {
		row, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", csvPath, i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(record []string) (SampleRow, error) {
	var row SampleRow
	var err error

	fields := []*float64{&row.X, &row.Y, &row.YPrime}
	for i, dst := range fields {
		if *dst, err = strconv.ParseFloat(record[i], 64); err != nil {
			return row, err
		}
	}

	if record[3] != "" {
		row.HasStep = true
		step := []*float64{&row.Predicted, &row.Corrected, &row.Discrepancy}
		for i, dst := range step {
			if *dst, err = strconv.ParseFloat(record[3+i], 64); err != nil {
				return row, err
			}
		}
	}

	if row.H, err = strconv.ParseFloat(record[6], 64); err != nil {
		return row, err
	}
	if row.Epoch, err = strconv.Atoi(record[7]); err != nil {
		return row, err
	}
	return row, nil
}

// Samples converts rows back to plain samples.
func Samples(rows []SampleRow) []dynamo.Sample {
	out := make([]dynamo.Sample, len(rows))
	for i, r := range rows {
		out[i] = dynamo.Sample{X: r.X, Y: r.Y, YPrime: r.YPrime}
	}
	return out
}
