package mapper

import (
	"encoding/binary"
	"io"
	"math"
	"time"
)

// RecordSize is the on-disk size of one archived ensemble member: day as unix
// seconds, member index and value, each 8 bytes little endian.
const RecordSize = 24

type Record struct {
	Day    time.Time
	Member int
	Value  float64
}

func (r Record) encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], uint64(r.Day.UTC().Unix()))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(int64(r.Member)))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(r.Value))
}

func decode(buf []byte) Record {
	return Record{
		Day:    time.Unix(int64(binary.LittleEndian.Uint64(buf[0:8])), 0).UTC(),
		Member: int(int64(binary.LittleEndian.Uint64(buf[8:16]))),
		Value:  math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24])),
	}
}

// WriteArchive appends records in archive layout. Readers expect records
// ordered by day, then member.
func WriteArchive(w io.Writer, records []Record) error {
	buf := make([]byte, RecordSize)
	for _, r := range records {
		r.encode(buf)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
