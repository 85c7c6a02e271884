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
	"github.com/san-kum/latgas/internal/automation"
	"github.com/san-kum/latgas/internal/config"
	"github.com/san-kum/latgas/internal/experiment"
	"github.com/san-kum/latgas/internal/lattice"
	"github.com/san-kum/latgas/internal/mc"
	"github.com/sirupsen/logrus"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
	sweepFile    = "sweep.csv"
	latticeFile  = "lattice.txt"
	indexFile    = "index.db"
)

var ErrNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
	index   *Index
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Init creates the data directory and opens the run index.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	idx, err := OpenIndex(filepath.Join(s.baseDir, indexFile))
	if err != nil {
		return err
	}
	s.index = idx
	return nil
}

func (s *Store) Close() error {
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}

func (s *Store) Dir(runID string) string { return filepath.Join(s.baseDir, runID) }

type RunMetadata struct {
	ID          string             `json:"id"`
	Kind        string             `json:"kind"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Dim         int                `json:"dim"`
	Lengths     []int              `json:"lengths"`
	Boundary    string             `json:"boundary"`
	Interaction string             `json:"interaction"`
	Params      map[string]float64 `json:"params,omitempty"`
	Rcut        float64            `json:"rcut,omitempty"`
	Points      int                `json:"points"`
	T           float64            `json:"t"`
	Mu          float64            `json:"mu"`
	Mode        string             `json:"mode"`
	Backend     string             `json:"backend"`
	Steps       int                `json:"steps"`
	Warmup      int                `json:"warmup"`
	Energy      float64            `json:"energy"`
	Population  float64            `json:"population"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Acceptance  float64            `json:"acceptance"`
	ElapsedMS   int64              `json:"elapsed_ms"`
	SweepPoints int                `json:"sweep_points,omitempty"`
}

// Size is the first linear extent, the usual label of a run.
func (m RunMetadata) Size() int {
	if len(m.Lengths) == 0 {
		return 0
	}
	return m.Lengths[0]
}

func metadataFrom(kind, name string, cfg *config.Config) RunMetadata {
	if name == "" {
		name = cfg.Name
	}
	if name == "" {
		name = kind
	}
	return RunMetadata{
		Kind:        kind,
		Name:        name,
		Timestamp:   time.Now(),
		Seed:        cfg.Run.Seed,
		Dim:         cfg.Lattice.Dim,
		Lengths:     cfg.Lattice.Lengths,
		Boundary:    cfg.Lattice.Boundary,
		Interaction: cfg.Potential.Interaction,
		Params:      cfg.Potential.Params,
		Rcut:        cfg.Potential.Rcut,
		Points:      cfg.Potential.Points,
		T:           cfg.Thermo.Temperature,
		Mu:          cfg.Thermo.Mu,
		Mode:        cfg.Run.Mode,
		Backend:     cfg.Run.Backend,
		Steps:       cfg.Run.Steps,
		Warmup:      cfg.Run.Warmup,
	}
}

func (s *Store) create(meta *RunMetadata) (string, error) {
	meta.ID = fmt.Sprintf("%s_%s_%s", meta.Name, meta.Timestamp.Format("20060102-150405"), uuid.NewString()[:8])
	dir := s.Dir(meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// write creates the run directory, fills it with files and records meta.
// A directory whose files or metadata could not be written is removed.
func (s *Store) write(meta *RunMetadata, files func(dir string) error) (string, error) {
	dir, err := s.create(meta)
	if err != nil {
		return "", err
	}
	if err := files(dir); err != nil {
		return "", s.discard(dir, err)
	}
	if err := writeJSON(filepath.Join(dir, metadataFile), *meta); err != nil {
		return "", s.discard(dir, err)
	}
	return meta.ID, s.record(dir, *meta)
}

func (s *Store) discard(dir string, cause error) error {
	if err := os.RemoveAll(dir); err != nil {
		logrus.Warnf("could not remove incomplete run %s: %v", dir, err)
	}
	return cause
}

func (s *Store) record(dir string, meta RunMetadata) error {
	if s.index != nil {
		if err := s.index.Record(meta); err != nil {
			return err
		}
	}
	logrus.Debugf("saved run %s to %s", meta.ID, dir)
	return nil
}

// Save stores a single run: metadata, per-step samples and the final
// lattice. name may be empty.
func (s *Store) Save(name string, res *experiment.Result) (string, error) {
	meta := metadataFrom("run", name, res.Config)
	meta.Seed = res.Seed
	meta.Energy = res.Averages.Energy
	meta.Population = res.Averages.Population
	meta.Metrics = res.Metrics
	meta.Acceptance = res.Acceptance.Rate()
	meta.ElapsedMS = res.Elapsed.Milliseconds()

	return s.write(&meta, func(dir string) error {
		if err := writeSamples(filepath.Join(dir, samplesFile), res.Samples); err != nil {
			return err
		}
		if res.Lattice == nil {
			return nil
		}
		return os.WriteFile(filepath.Join(dir, latticeFile), []byte(res.Lattice.Dump()), 0644)
	})
}

// SaveSweep stores sweep points under the given kind ("sweep", "sizes",
// "replicas").
func (s *Store) SaveSweep(kind, name string, cfg *config.Config, points []automation.SweepPoint) (string, error) {
	meta := metadataFrom(kind, name, cfg)
	meta.SweepPoints = len(points)

	return s.write(&meta, func(dir string) error {
		return writeSweep(filepath.Join(dir, sweepFile), points)
	})
}

func (s *Store) SaveSizes(name string, cfg *config.Config, series []automation.SizeSeries) (string, error) {
	var points []automation.SweepPoint
	for _, ss := range series {
		points = append(points, ss.Points...)
	}
	return s.SaveSweep(automation.KindSizes, name, cfg, points)
}

func (s *Store) SaveReplicas(name string, cfg *config.Config, stats *automation.ReplicaStats) (string, error) {
	meta := metadataFrom(automation.KindReplicas, name, cfg)
	meta.SweepPoints = len(stats.Replicas)
	meta.Energy = stats.Energy
	meta.Population = stats.Population
	meta.Metrics = map[string]float64{
		"energy_err":     stats.EnergyErr,
		"population_err": stats.PopulationErr,
	}

	return s.write(&meta, func(dir string) error {
		return writeSweep(filepath.Join(dir, sweepFile), stats.Replicas)
	})
}

// SaveStage stores whatever a plan stage produced.
func (s *Store) SaveStage(r automation.StageResult) (string, error) {
	name := r.Stage.SaveAs
	if name == "" {
		name = r.Stage.Name
	}
	switch {
	case r.Run != nil:
		return s.Save(name, r.Run)
	case r.Sizes != nil:
		return s.SaveSizes(name, r.Config, r.Sizes)
	case r.Replicas != nil:
		return s.SaveReplicas(name, r.Config, r.Replicas)
	default:
		return s.SaveSweep(automation.KindSweep, name, r.Config, r.Points)
	}
}

// List returns every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	if s.index != nil {
		ids, err := s.index.IDs(Filter{})
		if err != nil {
			return nil, err
		}
		runs := make([]RunMetadata, 0, len(ids))
		for _, id := range ids {
			meta, err := s.Load(id)
			if err != nil {
				logrus.Warnf("index lists %s but it cannot be loaded: %v", id, err)
				continue
			}
			runs = append(runs, *meta)
		}
		return runs, nil
	}
	return s.scan()
}

func (s *Store) scan() ([]RunMetadata, error) {
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
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

// Reindex rebuilds the run index from the run directories.
func (s *Store) Reindex() (int, error) {
	if s.index == nil {
		return 0, fmt.Errorf("storage: index not open")
	}
	runs, err := s.scan()
	if err != nil {
		return 0, err
	}
	if err := s.index.Clear(); err != nil {
		return 0, err
	}
	for _, meta := range runs {
		if err := s.index.Record(meta); err != nil {
			return 0, err
		}
	}
	return len(runs), nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]mc.Sample, error) {
	records, err := readCSV(filepath.Join(s.Dir(runID), samplesFile))
	if err != nil {
		return nil, err
	}

	samples := make([]mc.Sample, 0, len(records))
	for i, rec := range records {
		if len(rec) < 3 {
			return nil, fmt.Errorf("%s row %d: want 3 columns, got %d", samplesFile, i+1, len(rec))
		}
		step, err1 := strconv.Atoi(rec[0])
		e, err2 := strconv.ParseFloat(rec[1], 64)
		n, err3 := strconv.Atoi(rec[2])
		if err := errors.Join(err1, err2, err3); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", samplesFile, i+1, err)
		}
		samples = append(samples, mc.Sample{Step: step, Energy: e, Population: n})
	}
	return samples, nil
}

var sweepHeader = []string{
	"size", "t", "mu", "energy", "energy_err", "population", "density",
	"magnetization", "heat_capacity", "susceptibility", "acceptance",
}

func (s *Store) LoadSweep(runID string) ([]automation.SweepPoint, error) {
	records, err := readCSV(filepath.Join(s.Dir(runID), sweepFile))
	if err != nil {
		return nil, err
	}

	points := make([]automation.SweepPoint, 0, len(records))
	for i, rec := range records {
		if len(rec) != len(sweepHeader) {
			return nil, fmt.Errorf("%s row %d: want %d columns, got %d", sweepFile, i+1, len(sweepHeader), len(rec))
		}
		size, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", sweepFile, i+1, err)
		}
		vals := make([]float64, len(rec)-1)
		for j := range vals {
			if vals[j], err = strconv.ParseFloat(rec[j+1], 64); err != nil {
				return nil, fmt.Errorf("%s row %d: %w", sweepFile, i+1, err)
			}
		}
		points = append(points, automation.SweepPoint{
			Size: size, T: vals[0], Mu: vals[1], Energy: vals[2], EnergyErr: vals[3],
			Population: vals[4], Density: vals[5], Magnetization: vals[6],
			HeatCapacity: vals[7], Susceptibility: vals[8], Acceptance: vals[9],
		})
	}
	return points, nil
}

// LoadLattice rebuilds the final lattice of a single run.
func (s *Store) LoadLattice(runID string) (*lattice.Lattice, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	bc, err := lattice.ParseBoundary(meta.Boundary)
	if err != nil {
		return nil, err
	}
	l, err := lattice.New(meta.Dim, bc, meta.Lengths...)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), latticeFile))
	if err != nil {
		return nil, err
	}
	if err := l.Undump(string(data)); err != nil {
		return nil, err
	}
	return l, nil
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

func writeSamples(path string, samples []mc.Sample) error {
	rows := make([][]string, 0, len(samples)+1)
	rows = append(rows, []string{"step", "energy", "population"})
	for _, smp := range samples {
		rows = append(rows, []string{
			strconv.Itoa(smp.Step),
			strconv.FormatFloat(smp.Energy, 'g', -1, 64),
			strconv.Itoa(smp.Population),
		})
	}
	return writeCSV(path, rows)
}

func writeSweep(path string, points []automation.SweepPoint) error {
	rows := make([][]string, 0, len(points)+1)
	rows = append(rows, sweepHeader)
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, p := range points {
		rows = append(rows, []string{
			strconv.Itoa(p.Size), f(p.T), f(p.Mu), f(p.Energy), f(p.EnergyErr), f(p.Population),
			f(p.Density), f(p.Magnetization), f(p.HeatCapacity), f(p.Susceptibility), f(p.Acceptance),
		})
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return file.Sync()
}

// readCSV returns the data rows, without the header.
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}
