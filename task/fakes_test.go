package task

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/timgluz/soilflag/flagstore"
	"github.com/timgluz/soilflag/onfarm"
	"github.com/timgluz/soilflag/reading"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memoryRepository struct {
	decisions []flagstore.Decision
	loadErr   error
	saveErr   error
	saves     int
}

func (r *memoryRepository) Load(context.Context) (*flagstore.Store, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return flagstore.NewStoreFromDecisions(r.decisions), nil
}

func (r *memoryRepository) Save(_ context.Context, store *flagstore.Store) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.decisions = store.Decisions()
	return nil
}

func (r *memoryRepository) IsReady() bool { return true }
func (r *memoryRepository) Close() error  { return nil }

func (r *memoryRepository) flag(uid reading.UID) (flagstore.Flag, bool) {
	for _, d := range r.decisions {
		if d.UID == uid {
			return d.Flag, true
		}
	}
	return "", false
}

type fakeProvider struct {
	mu      sync.Mutex
	records map[string]onfarm.RecordList
	errs    map[string]error
	calls   int
}

func siteKey(code, subplot string) string {
	return code + "/" + subplot
}

func (p *fakeProvider) GetSoilMoisture(_ context.Context, code, subplot string) (onfarm.RecordList, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	key := siteKey(code, subplot)
	if err, ok := p.errs[key]; ok {
		return nil, err
	}
	records, ok := p.records[key]
	if !ok {
		return nil, fmt.Errorf("unknown site %s", key)
	}
	return records, nil
}

func (p *fakeProvider) IsReady() bool { return true }
func (p *fakeProvider) Close() error  { return nil }

// staticOracle returns the same flag for every reading and can fail for
// batches that contain a given uid.
type staticOracle struct {
	flag    flagstore.Flag
	failUID reading.UID
	calls   int
}

func (o *staticOracle) Flag(_ context.Context, batch []reading.Reading, _ float64) ([]flagstore.Flag, error) {
	o.calls++
	flags := make([]flagstore.Flag, len(batch))
	for i, r := range batch {
		if o.failUID != 0 && r.UID == o.failUID {
			return nil, fmt.Errorf("oracle crashed")
		}
		flags[i] = o.flag
		if flags[i] == "" {
			flags[i] = flagstore.FlagGood
		}
	}
	return flags, nil
}

func number(v float64) onfarm.Number {
	return onfarm.Number{Value: v, Valid: true}
}

// series builds n records four hours apart for one depth, uids starting at firstUID.
func series(firstUID int, n int, depth float64, treatment string) onfarm.RecordList {
	start := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	records := make(onfarm.RecordList, n)
	for i := range records {
		records[i] = onfarm.Record{
			NodeSerialNo: "N1",
			CenterDepth:  number(depth),
			VWC:          number(25),
			UID:          number(float64(firstUID + i)),
			Timestamp:    onfarm.String(start.Add(time.Duration(i) * 4 * time.Hour).Format("2006-01-02 15:04:05")),
			Treatment:    onfarm.String(treatment),
		}
	}
	return records
}

func concat(lists ...onfarm.RecordList) onfarm.RecordList {
	var all onfarm.RecordList
	for _, l := range lists {
		all = append(all, l...)
	}
	return all
}
