package engine

import (
	"context"
	"encoding/json"
	"io"
)

// snapshotVersion tags the dump envelope so future formats can be
// recognized on restore.
const snapshotVersion = "1"

// snapshot is the JSON envelope written by Dump and read by Restore.
type snapshot struct {
	Version    string        `json:"version"`
	Dimensions int           `json:"dimensions"`
	Count      int           `json:"count"`
	Documents  []ExportEntry `json:"documents"`
}

// Dump writes the engine's export sequence to w as JSON. This is a
// serialization of the same sequence Export returns, not a storage
// layer; the caller owns the writer.
func (e *Engine) Dump(w io.Writer) error {
	entries := e.Export()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	err := enc.Encode(snapshot{
		Version:    snapshotVersion,
		Dimensions: e.cfg.dimensions,
		Count:      len(entries),
		Documents:  entries,
	})
	return wrapError("dump", err)
}

// Restore replaces the engine state with a snapshot previously written
// by Dump.
func (e *Engine) Restore(ctx context.Context, r io.Reader) error {
	var snap snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return wrapError("restore", err)
	}
	return e.Import(ctx, snap.Documents)
}
