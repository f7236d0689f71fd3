// Package storage persists propagation runs under a base directory, one
// subdirectory per run holding metadata.json and states.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/avrek/propsim/internal/engine"
)

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
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Timestamp   time.Time `json:"timestamp"`
	Dt          float64   `json:"dt"`
	StartEpoch  float64   `json:"startEpoch"`
	FinalEpoch  float64   `json:"finalEpoch"`
	Stepper     string    `json:"stepper"`
	Bodies      []string  `json:"bodies"`
	Variables   []string  `json:"variables"`
	Steps       int       `json:"steps"`
	StateLength int       `json:"stateLength"`
}

// Save writes one run: pretty-printed metadata plus a CSV with one row per
// sample, the epoch first, then the full state vector, then the saved
// dependent-variable series in metadata order.
func (s *Store) Save(meta RunMetadata, result *engine.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Name, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Steps = result.Steps
	if len(result.Epochs) > 0 {
		meta.StartEpoch = result.Epochs[0]
		meta.FinalEpoch = result.Epochs[len(result.Epochs)-1]
	}
	if len(result.States) > 0 {
		meta.StateLength = len(result.States[0])
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "states.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if len(result.States) == 0 {
		return runID, nil
	}

	header := []string{"epoch"}
	for i := range result.States[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	header = append(header, meta.Variables...)
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := range result.States {
		row := []string{strconv.FormatFloat(result.Epochs[i], 'f', 6, 64)}
		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		for _, id := range meta.Variables {
			series := result.Variables[id]
			if i < len(series) {
				row = append(row, strconv.FormatFloat(series[i], 'f', 6, 64))
			} else {
				row = append(row, "0")
			}
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

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

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadStates reads a run's CSV back as rows and epochs. The rows keep the
// state and variable columns together; callers slice by the metadata's
// state length when they need to tell them apart.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	csvPath := filepath.Join(s.baseDir, runID, "states.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	epochs := make([]float64, 0, len(records)-1)
	rows := make([][]float64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}

		epoch, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		epochs = append(epochs, epoch)

		row := make([]float64, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue
			}
			row = append(row, val)
		}
		rows = append(rows, row)
	}

	return rows, epochs, nil
}

// WriteSeries writes a flat CSV of named columns, used by export blocks.
func WriteSeries(path string, header bool, columns []string, rows [][]float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if header {
		if err := w.Write(columns); err != nil {
			return err
		}
	}
	for _, row := range rows {
		record := make([]string, len(row))
		for i, val := range row {
			record[i] = strconv.FormatFloat(val, 'f', 6, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
