package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/springnet/internal/sim"
)

type ExportFrame struct {
	Step          int          `json:"step"`
	Time          float64      `json:"time"`
	KineticEnergy float64      `json:"kinetic_energy"`
	SpringEnergy  float64      `json:"spring_energy"`
	Positions     [][2]float64 `json:"positions"`
}

type ExportData struct {
	Run    RunMetadata   `json:"run"`
	Frames []ExportFrame `json:"frames"`
}

func NewExportData(meta RunMetadata, frames []sim.Frame) ExportData {
	data := ExportData{Run: meta, Frames: make([]ExportFrame, len(frames))}
	for i, f := range frames {
		pos := make([][2]float64, len(f.Positions))
		for j, p := range f.Positions {
			pos[j] = [2]float64{p.X, p.Y}
		}
		data.Frames[i] = ExportFrame{
			Step:          f.Step,
			Time:          f.Time,
			KineticEnergy: f.KineticEnergy,
			SpringEnergy:  f.SpringEnergy,
			Positions:     pos,
		}
	}
	return data
}

func WriteJSON(w io.Writer, meta RunMetadata, frames []sim.Frame) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(meta, frames))
}

func ExportJSON(path string, meta RunMetadata, frames []sim.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, meta, frames)
}
