package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/glizzus/cronspan/internal/datalayer"
	"github.com/glizzus/cronspan/internal/schedule"
)

// ScheduleDocument is the exported form of a schedule, readable by any
// scheduler that accepts seven-field cron expressions.
type ScheduleDocument struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Start      string      `json:"start"`
	End        string      `json:"end"`
	At         string      `json:"at"`
	Timezone   string      `json:"timezone"`
	Expression string      `json:"expression"`
	Fragments  []string    `json:"fragments"`
	Upcoming   []time.Time `json:"upcoming,omitempty"`
}

func NewScheduleDocument(s Schedule, upcoming []time.Time) ScheduleDocument {
	return ScheduleDocument{
		ID:         s.ID,
		Name:       s.Name,
		Start:      s.Start.String(),
		End:        s.End.String(),
		At:         s.At.String(),
		Timezone:   s.Timezone,
		Expression: s.Expression,
		Fragments:  s.Fragments(),
		Upcoming:   upcoming,
	}
}

// ScheduleExporter writes schedule documents to blob storage under a prefix.
type ScheduleExporter struct {
	storage datalayer.BlobStorage
	prefix  string
}

func NewScheduleExporter(storage datalayer.BlobStorage, prefix string) *ScheduleExporter {
	return &ScheduleExporter{storage: storage, prefix: prefix}
}

// Key is where a schedule's document is stored.
func (e *ScheduleExporter) Key(id string) string {
	return path.Join(e.prefix, id+".json")
}

// Export stores the document for s along with the next preview run times
// and returns its key.
func (e *ScheduleExporter) Export(ctx context.Context, s Schedule, preview int) (string, error) {
	var upcoming []time.Time
	if preview > 0 {
		runs, err := s.UpcomingRuns(time.Now(), preview)
		if err != nil {
			return "", fmt.Errorf("failed to get upcoming run times: %w", err)
		}
		upcoming = runs
	}

	body, err := json.MarshalIndent(NewScheduleDocument(s, upcoming), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode schedule %s: %w", s.ID, err)
	}

	key := e.Key(s.ID)
	err = e.storage.Put(ctx, key, bytes.NewReader(body), datalayer.PutOptions{
		Size:        int64(len(body)),
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload schedule %s: %w", s.ID, err)
	}
	return key, nil
}

// Load reads back a previously exported document. Documents may have been
// edited in storage, so every fragment is validated.
func (e *ScheduleExporter) Load(ctx context.Context, id string) (ScheduleDocument, error) {
	r, err := e.storage.Get(ctx, e.Key(id))
	if err != nil {
		return ScheduleDocument{}, err
	}
	defer r.Close()

	var doc ScheduleDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return ScheduleDocument{}, fmt.Errorf("failed to decode schedule %s: %w", id, err)
	}
	for _, fragment := range doc.Fragments {
		if err := schedule.ValidateCron(fragment); err != nil {
			return ScheduleDocument{}, fmt.Errorf("schedule %s has an invalid fragment: %w", id, err)
		}
	}
	return doc, nil
}
