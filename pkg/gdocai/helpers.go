package gdocai

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// ToJSON converts a protocol buffer message to a pretty-printed JSON string
func ToJSON(msg proto.Message) (string, error) {
	jsonData, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(msg)
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

// dumper saves raw responses for troubleshooting
type dumper struct {
	dir string
	seq atomic.Int64
}

// save writes msg to <dir>/<kind>_<seq>.json and returns the path.
// It does nothing when no directory is configured.
func (d *dumper) save(kind string, msg proto.Message) (string, error) {
	if d == nil || d.dir == "" {
		return "", nil
	}
	data, err := ToJSON(msg)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s response: %w", kind, err)
	}
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(d.dir, fmt.Sprintf("%s_%03d.json", kind, d.seq.Add(1)))
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return "", err
	}
	return path, nil
}
