package mapper

import (
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/exp/mmap"
)

// Reader gives random access to a memory mapped ensemble archive.
type Reader struct {
	dataSourceName string
	reader         *mmap.ReaderAt
	bufferPool     *sync.Pool
}

func NewReader(dataSourceName string) *Reader {
	return &Reader{
		dataSourceName: dataSourceName,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buffer := make([]byte, RecordSize)
				return &buffer
			},
		},
	}
}

func (r *Reader) Open() error {
	reader, err := mmap.Open(r.dataSourceName)
	if err != nil {
		return fmt.Errorf("unable to open data source %q: %w", r.dataSourceName, err)
	}
	if reader.Len()%RecordSize != 0 {
		_ = reader.Close()
		return fmt.Errorf("data source %q: size %d is not a multiple of %d", r.dataSourceName, reader.Len(), RecordSize)
	}
	r.reader = reader
	return nil
}

func (r *Reader) Close() {
	if r.reader != nil {
		_ = r.reader.Close()
	}
}

func (r *Reader) Len() int {
	return r.reader.Len() / RecordSize
}

// Read returns the record at index, io.EOF past the end.
func (r *Reader) Read(index int) (Record, error) {
	buffer := r.bufferPool.Get().(*[]byte)
	defer r.bufferPool.Put(buffer)

	n, err := r.reader.ReadAt(*buffer, int64(index)*RecordSize)
	if n < RecordSize {
		if err == nil || err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("unable to read: %w", err)
	}
	return decode(*buffer), nil
}

// Forecasts groups consecutive records of the same day and passes each day's
// members to handler, skipping days outside [from, to].
func (r *Reader) Forecasts(from, to time.Time, handler func(day time.Time, members []float64) error) error {
	var (
		day     time.Time
		members []float64
	)
	flush := func() error {
		if len(members) == 0 || day.Before(from) || day.After(to) {
			return nil
		}
		return handler(day, members)
	}

	for i := 0; i < r.Len(); i++ {
		rec, err := r.Read(i)
		if err != nil {
			return err
		}
		if !rec.Day.Equal(day) {
			if err := flush(); err != nil {
				return err
			}
			day, members = rec.Day, nil
		}
		members = append(members, rec.Value)
	}
	return flush()
}
