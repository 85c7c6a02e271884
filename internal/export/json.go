package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/latgas/internal/automation"
	"github.com/san-kum/latgas/internal/mc"
	"github.com/san-kum/latgas/internal/storage"
)

type ExportData struct {
	Run     storage.RunMetadata     `json:"run"`
	Steps   []int                   `json:"steps,omitempty"`
	Energy  []float64               `json:"energy,omitempty"`
	Counts  []int                   `json:"population,omitempty"`
	Points  []automation.SweepPoint `json:"points,omitempty"`
	Lattice string                  `json:"lattice,omitempty"`
}

// NewExportData flattens a stored run into column form.
func NewExportData(meta storage.RunMetadata, samples []mc.Sample, points []automation.SweepPoint, lattice string) ExportData {
	data := ExportData{Run: meta, Points: points, Lattice: lattice}
	if len(samples) > 0 {
		data.Steps = make([]int, len(samples))
		data.Energy = make([]float64, len(samples))
		data.Counts = make([]int, len(samples))
		for i, s := range samples {
			data.Steps[i] = s.Step
			data.Energy[i] = s.Energy
			data.Counts[i] = s.Population
		}
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

// FromStore loads everything stored for runID that applies to its kind.
func FromStore(st *storage.Store, runID string) (ExportData, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return ExportData{}, err
	}
	if meta.Kind != automation.KindRun {
		points, err := st.LoadSweep(runID)
		if err != nil {
			return ExportData{}, err
		}
		return NewExportData(*meta, nil, points, ""), nil
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return ExportData{}, err
	}
	dump := ""
	if l, err := st.LoadLattice(runID); err == nil {
		dump = l.Dump()
	}
	return NewExportData(*meta, samples, nil, dump), nil
}
