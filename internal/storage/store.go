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

	"github.com/san-kum/lcpsim/internal/dynamo"
	"github.com/san-kum/lcpsim/internal/lcp"
)

// ErrCorruptRun indicates a run directory whose files disagree.
var ErrCorruptRun = errors.New("storage: corrupt run")

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
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Mode       dynamo.Mode        `json:"mode"`
	Timestamp  time.Time          `json:"timestamp"`
	Controller string             `json:"controller"`
	Params     lcp.Params         `json:"params"`
	Initial    dynamo.State       `json:"initial"`
	Steps      int                `json:"steps"`
	Shape      lcp.Shape          `json:"shape"`
	Obstacles  []string           `json:"obstacles,omitempty"`
	Solves     int                `json:"solves"`
	Nodes      int                `json:"nodes"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes metadata.json and trajectory.csv into a new run directory.
// The CSV has a time column followed by one column per update field.
func (s *Store) Save(scenario, controller string, params lcp.Params, initial dynamo.State, result *dynamo.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%s_%d", scenario, result.Mode, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Scenario:   scenario,
		Mode:       result.Mode,
		Timestamp:  now,
		Controller: controller,
		Params:     params,
		Initial:    initial,
		Steps:      len(result.Trajectory),
		Solves:     result.Solves,
		Nodes:      result.Nodes,
		Metrics:    result.Metrics,
	}
	if len(result.Trajectory) > 0 {
		first := result.Trajectory[0]
		meta.Shape = lcp.ShapeOf(first)
		for _, c := range first.Contacts {
			meta.Obstacles = append(meta.Obstacles, c.Obstacle)
		}
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeTrajectory(filepath.Join(runDir, "trajectory.csv"), params.Dt, result.Trajectory); err != nil {
		return "", err
	}
	return runID, nil
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

func writeTrajectory(path string, dt float64, traj []lcp.Solved) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(traj) > 0 {
		if err := w.Write(append([]string{"t"}, lcp.Paths(traj[0])...)); err != nil {
			return err
		}
	}
	for i, u := range traj {
		row := []string{strconv.FormatFloat(float64(i+1)*dt, 'g', -1, 64)}
		for _, x := range lcp.Flatten(u) {
			row = append(row, strconv.FormatFloat(x, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the metadata of every stored run, oldest first.
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
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTrajectory reads a stored trajectory back into solved updates along
// with the time of every step.
func (s *Store) LoadTrajectory(runID string) ([]lcp.Solved, []float64, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trajectory.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []lcp.Solved{}, []float64{}, nil
	}

	shape := lcp.Zero(meta.Shape)
	want := lcp.Paths(shape)
	header := records[0]
	if len(header) != len(want)+1 {
		return nil, nil, fmt.Errorf("%w: %s has %d columns, metadata implies %d", ErrCorruptRun, runID, len(header), len(want)+1)
	}
	for i, p := range want {
		if header[i+1] != p {
			return nil, nil, fmt.Errorf("%w: column %d is %q, want %q", ErrCorruptRun, i+1, header[i+1], p)
		}
	}

	traj := make([]lcp.Solved, 0, len(records)-1)
	times := make([]float64, 0, len(records)-1)
	for n, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: row %d column %d: %v", ErrCorruptRun, n+1, j, err)
			}
			vals[j] = v
		}
		u, err := lcp.Unflatten(shape, vals[1:])
		if err != nil {
			return nil, nil, err
		}
		for i := range u.Contacts {
			if i < len(meta.Obstacles) {
				u.Contacts[i].Obstacle = meta.Obstacles[i]
			}
		}
		times = append(times, vals[0])
		traj = append(traj, u)
	}
	return traj, times, nil
}
