package runner

import (
	"strings"
	"sync/atomic"
)

// Record is one input line split into named slots per a Pipeline's
// DataSettings (spec.md §3's data_settings.slices).
type Record struct {
	Line  string
	Slots map[string]string
}

// SplitRecord splits line on separator and binds the resulting fields to
// slots positionally. Missing trailing fields bind to empty strings;
// extra fields beyond len(slots) are dropped.
func SplitRecord(line, separator string, slots []string) Record {
	var parts []string
	if separator == "" {
		parts = []string{line}
	} else {
		parts = strings.Split(line, separator)
	}
	bound := make(map[string]string, len(slots))
	for i, name := range slots {
		if i < len(parts) {
			bound[name] = parts[i]
		} else {
			bound[name] = ""
		}
	}
	return Record{Line: line, Slots: bound}
}

// DataPool is a concurrent index-advancing cursor over a fixed record set,
// honoring skip/take (spec.md §4.F step 1: "a concurrent index-advancing
// cursor; respects skip/take").
type DataPool struct {
	records []Record
	cursor  int64
	end     int64
}

// NewDataPool builds a DataPool over records, starting at skip and
// stopping after take records (take<=0 means "through the end").
func NewDataPool(records []Record, skip, take int) *DataPool {
	start := skip
	if start < 0 {
		start = 0
	}
	if start > len(records) {
		start = len(records)
	}
	end := len(records)
	if take > 0 && start+take < end {
		end = start + take
	}
	return &DataPool{records: records, cursor: int64(start), end: int64(end)}
}

// Next atomically claims the next record, returning ok=false once the pool
// is exhausted. Safe for concurrent use by any number of workers.
func (p *DataPool) Next() (Record, int, bool) {
	for {
		idx := atomic.LoadInt64(&p.cursor)
		if idx >= p.end {
			return Record{}, 0, false
		}
		if atomic.CompareAndSwapInt64(&p.cursor, idx, idx+1) {
			return p.records[idx], int(idx), true
		}
	}
}

// Remaining reports how many records have not yet been claimed.
func (p *DataPool) Remaining() int {
	idx := atomic.LoadInt64(&p.cursor)
	if idx >= p.end {
		return 0
	}
	return int(p.end - idx)
}

// Total reports the end index of the pool's range: the (clamped) skip plus
// the number of records Next hands out, so skipped records count toward it.
func (p *DataPool) Total() int {
	return int(p.end)
}
