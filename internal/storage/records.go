package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/qrsim/internal/dynamo"
	"github.com/san-kum/qrsim/internal/qrange"
)

// Record is a stored interval as written to disk: a [low, high, value]
// triple.
type Record qrange.Record[dynamo.Snapshot]

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Low, r.High, r.Value})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("record: expected 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &r.Low); err != nil {
		return fmt.Errorf("record low: %w", err)
	}
	if err := json.Unmarshal(raw[1], &r.High); err != nil {
		return fmt.Errorf("record high: %w", err)
	}
	if err := json.Unmarshal(raw[2], &r.Value); err != nil {
		return fmt.Errorf("record value: %w", err)
	}
	return nil
}

func FromStore(recs []qrange.Record[dynamo.Snapshot]) []Record {
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = Record(r)
	}
	return out
}

// Index loads records into a fresh tree store, preserving their order.
func Index(recs []Record) (*qrange.Tree[dynamo.Snapshot], error) {
	t := qrange.NewTree[dynamo.Snapshot]()
	for i, r := range recs {
		if err := t.Insert(r.Low, r.High, r.Value); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return t, nil
}

func WriteLog(w io.Writer, recs []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(recs)
}

func ReadLog(r io.Reader) ([]Record, error) {
	var recs []Record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Trajectory lists the distinct states recorded for one agent in record
// order. The seed state appears once even though later reads may repeat it.
func Trajectory(recs []Record, agent string) []dynamo.AgentState {
	var out []dynamo.AgentState
	for _, r := range recs {
		st, ok := r.Value[agent]
		if !ok {
			continue
		}
		if n := len(out); n > 0 && out[n-1] == st {
			continue
		}
		out = append(out, st)
	}
	return out
}

// Agents returns every agent id found in recs, in order of first appearance.
// Ids first seen in the same record are sorted.
func Agents(recs []Record) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range recs {
		for _, id := range r.Value.IDs() {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

var trajectoryHeader = []string{"agent", "name", "low", "high", "time", "time_step", "x", "y", "vx", "vy", "m"}

// WriteTrajectoriesCSV writes one row per agent state per record.
func WriteTrajectoriesCSV(w io.Writer, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trajectoryHeader); err != nil {
		return err
	}

	for _, r := range recs {
		for _, id := range r.Value.IDs() {
			st := r.Value[id]
			row := []string{
				id, st.Name,
				formatFloat(r.Low), formatFloat(r.High),
				formatFloat(st.Time), formatFloat(st.TimeStep),
				formatFloat(st.X), formatFloat(st.Y),
				formatFloat(st.VX), formatFloat(st.VY),
				formatFloat(st.M),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
