package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pterm/pterm"
)

// ProgressEmitter reports the course of an ingestion run.
//
// Implementations include:
// - CLIEmitter: terminal output using pterm
// - JSONEmitter: one JSON event per line
type ProgressEmitter interface {
	EmitStage(stage string, message string)
	EmitProgress(count int, metadata map[string]interface{})
	EmitComplete(stats *Stats)
	EmitError(stage string, err error)
	EmitInfo(message string)
}

// ProgressEvent is a structured JSON progress event.
type ProgressEvent struct {
	Type      string                 `json:"type"` // "stage", "progress", "complete", "error", "info"
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// CLIEmitter prints progress to the terminal.
type CLIEmitter struct {
	verbosity int
}

func NewCLIEmitter(verbosity int) *CLIEmitter {
	return &CLIEmitter{verbosity: verbosity}
}

func (e *CLIEmitter) EmitStage(stage string, message string) {
	pterm.Printf("🔄 %s: %s\n", pterm.LightCyan(stage), message)
}

func (e *CLIEmitter) EmitProgress(count int, metadata map[string]interface{}) {
	if itemType, ok := metadata["type"].(string); ok {
		pterm.Printf("✅ Processed %s %s\n", pterm.Green(fmt.Sprintf("%d", count)), itemType)
	} else {
		pterm.Printf("✅ Processed %s records\n", pterm.Green(fmt.Sprintf("%d", count)))
	}
}

// EmitComplete prints the run counts and, at verbosity 1 and up, the
// warning summary.
func (e *CLIEmitter) EmitComplete(stats *Stats) {
	pterm.Success.Printf("Ingested %d of %d records (%d skipped, %d failed) in %dms\n",
		stats.Ingested, stats.Seen, stats.Skipped, stats.Failed, stats.DurationMs)

	warnings := stats.SortedWarnings()
	if len(warnings) == 0 || e.verbosity < 1 {
		return
	}
	rows := pterm.TableData{{"Count", "Warning"}}
	for _, w := range warnings {
		rows = append(rows, []string{fmt.Sprintf("%d", w.Count), w.Template})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func (e *CLIEmitter) EmitError(stage string, err error) {
	pterm.Error.Printf("Error in %s: %v\n", stage, err)
}

func (e *CLIEmitter) EmitInfo(message string) {
	if e.verbosity >= 1 {
		pterm.Info.Println(message)
	}
}

// JSONEmitter writes one JSON event per line.
type JSONEmitter struct {
	encoder *json.Encoder
}

func NewJSONEmitter(w io.Writer) *JSONEmitter {
	return &JSONEmitter{encoder: json.NewEncoder(w)}
}

func (e *JSONEmitter) emit(typ string, data map[string]interface{}) {
	_ = e.encoder.Encode(ProgressEvent{Type: typ, Timestamp: time.Now(), Data: data})
}

func (e *JSONEmitter) EmitStage(stage string, message string) {
	e.emit("stage", map[string]interface{}{"stage": stage, "message": message})
}

func (e *JSONEmitter) EmitProgress(count int, metadata map[string]interface{}) {
	data := map[string]interface{}{"count": count}
	for k, v := range metadata {
		data[k] = v
	}
	e.emit("progress", data)
}

func (e *JSONEmitter) EmitComplete(stats *Stats) {
	data := stats.Summary()
	data["warnings"] = stats.SortedWarnings()
	e.emit("complete", data)
}

func (e *JSONEmitter) EmitError(stage string, err error) {
	e.emit("error", map[string]interface{}{"stage": stage, "error": err.Error()})
}

func (e *JSONEmitter) EmitInfo(message string) {
	e.emit("info", map[string]interface{}{"message": message})
}

// nopEmitter discards progress.
type nopEmitter struct{}

func (nopEmitter) EmitStage(string, string) {}
func (nopEmitter) EmitProgress(int, map[string]interface{}) {}
func (nopEmitter) EmitComplete(*Stats) {}
func (nopEmitter) EmitError(string, error) {}
func (nopEmitter) EmitInfo(string) {}
