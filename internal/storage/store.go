package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/springnet/internal/sim"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

// ErrMalformed indicates a frames file that does not match its header.
var ErrMalformed = errors.New("storage: malformed frames file")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo describes the run being saved.
type RunInfo struct {
	Name      string
	Source    string
	Seed      int64
	Dt        float64
	Steps     int
	Repulsion float64
	Friction  float64
	Labels    []string
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Source     string             `json:"source"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	StepsTaken int                `json:"steps_taken"`
	Repulsion  float64            `json:"repulsion"`
	Friction   float64            `json:"friction"`
	Labels     []string           `json:"labels"`
	Frames     int                `json:"frames"`
	Metrics    map[string]float64 `json:"metrics"`
}

func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", info.Name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Name:       info.Name,
		Source:     info.Source,
		Timestamp:  now,
		Seed:       info.Seed,
		Dt:         info.Dt,
		Steps:      info.Steps,
		StepsTaken: result.StepsTaken,
		Repulsion:  info.Repulsion,
		Friction:   info.Friction,
		Labels:     info.Labels,
		Frames:     len(result.Frames),
		Metrics:    result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, framesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteFramesCSV(csvFile, result.Frames); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteFramesCSV writes one row per frame: step, time, kinetic and spring
// energy, then x and y of every body in system order.
func WriteFramesCSV(out io.Writer, frames []sim.Frame) error {
	w := csv.NewWriter(out)

	bodies := 0
	if len(frames) > 0 {
		bodies = len(frames[0].Positions)
	}
	header := []string{"step", "time", "kinetic", "spring"}
	for i := 0; i < bodies; i++ {
		header = append(header, fmt.Sprintf("x%d", i), fmt.Sprintf("y%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, f := range frames {
		row := []string{strconv.Itoa(f.Step), format(f.Time), format(f.KineticEnergy), format(f.SpringEnergy)}
		for _, p := range f.Positions {
			row = append(row, format(p.X), format(p.Y))
		}
		if err := w.Write(row); err != nil {
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadFramesCSV(file)
}

func ReadFramesCSV(in io.Reader) ([]sim.Frame, error) {
	r := csv.NewReader(in)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Frame{}, nil
	}
	if (len(records[0])-4)%2 != 0 || len(records[0]) < 4 {
		return nil, fmt.Errorf("%w: header has %d columns", ErrMalformed, len(records[0]))
	}

	frames := make([]sim.Frame, 0, len(records)-1)
	for line, record := range records[1:] {
		values := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %d: %v", ErrMalformed, line+1, j, err)
			}
			values[j] = v
		}

		f := sim.Frame{
			Step:          int(values[0]),
			Time:          values[1],
			KineticEnergy: values[2],
			SpringEnergy:  values[3],
			Positions:     make([]r2.Vec, 0, (len(values)-4)/2),
		}
		for j := 4; j+1 < len(values); j += 2 {
			f.Positions = append(f.Positions, r2.Vec{X: values[j], Y: values[j+1]})
		}
		frames = append(frames, f)
	}
	return frames, nil
}
