package feed

import (
	"encoding/csv"
	"io"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/flxgn/buyTheBoop/pkg/errors"
	"github.com/shopspring/decimal"
)

// Point is one raw entry of the input price series.
type Point struct {
	Timestamp time.Time
	Price     decimal.Decimal
}

// Source supplies the raw (timestamp, price) series. The feed treats it as
// an opaque, finite, in-order iterable.
type Source interface {
	// Next returns the next point, or ok=false when the series is
	// exhausted. An error aborts the run.
	Next() (point Point, ok bool, err error)
}

// SliceSource replays an in-memory series.
type SliceSource struct {
	points []Point
	pos    int
}

// NewSliceSource creates a source over the given points.
func NewSliceSource(points ...Point) *SliceSource {
	return &SliceSource{points: points}
}

// Len returns the total number of points in the series.
func (s *SliceSource) Len() int {
	return len(s.points)
}

// Next implements Source.
func (s *SliceSource) Next() (Point, bool, error) {
	if s.pos >= len(s.points) {
		return Point{}, false, nil
	}

	point := s.points[s.pos]
	s.pos++

	return point, true, nil
}

// LoadCSV reads a price history file with one "timestamp,price" row per
// tick, where timestamp is unix milliseconds. A header row is skipped when
// the first field is not numeric.
func LoadCSV(path string) (*SliceSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open %s", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 2

	var points []Point

	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMalformedInput, err, "failed to read row %d of %s", row, path)
		}

		millis, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			if row == 0 {
				// Header row.
				continue
			}

			return nil, errors.Wrapf(errors.ErrCodeMalformedInput, err, "invalid timestamp at row %d of %s", row, path)
		}

		price, err := decimal.NewFromString(record[1])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMalformedInput, err, "invalid price at row %d of %s", row, path)
		}

		points = append(points, Point{
			Timestamp: time.UnixMilli(millis).UTC(),
			Price:     price,
		})
	}

	return NewSliceSource(points...), nil
}

// SyntheticSource generates a seeded random-walk price series, for runs
// without a history file and for test data.
type SyntheticSource struct {
	rand      *rand.Rand
	price     decimal.Decimal
	next      time.Time
	interval  time.Duration
	remaining int
}

// NewSyntheticSource creates a generator producing count points starting at
// startPrice, one per interval, beginning at start. The same seed always
// produces the same series.
func NewSyntheticSource(seed int64, startPrice decimal.Decimal, start time.Time, interval time.Duration, count int) *SyntheticSource {
	return &SyntheticSource{
		rand:      rand.New(rand.NewSource(seed)),
		price:     startPrice,
		next:      start,
		interval:  interval,
		remaining: count,
	}
}

// Next implements Source.
func (s *SyntheticSource) Next() (Point, bool, error) {
	if s.remaining <= 0 {
		return Point{}, false, nil
	}

	s.remaining--

	point := Point{Timestamp: s.next, Price: s.price}
	s.next = s.next.Add(s.interval)

	// Walk up to one percent in either direction, never touching zero.
	step := decimal.NewFromFloat(1 + (s.rand.Float64()-0.5)*0.02)
	s.price = s.price.Mul(step)

	return point, true, nil
}
