package generation

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"lcatricity/internal/apperr"
)

// Bucket is one resampling width. Truncate maps a timestamp to the start of its bucket.
type Bucket struct {
	Name     string
	Truncate func(time.Time) time.Time
}

// Ladder lists bucket widths from finest to coarsest.
type Ladder []Bucket

// DefaultLadder is hourly, 4-hourly, 6-hourly, daily, monthly.
var DefaultLadder = MustParseLadder("1h", "4h", "6h", "1d", "1mo")

// ParseLadder builds a ladder from names such as "1h", "6h", "1d", "1mo".
func ParseLadder(names ...string) (Ladder, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("resample ladder: empty")
	}
	ladder := make(Ladder, 0, len(names))
	for _, name := range names {
		bucket, err := parseBucket(name)
		if err != nil {
			return nil, err
		}
		ladder = append(ladder, bucket)
	}
	return ladder, nil
}

// MustParseLadder is ParseLadder that panics on error.
func MustParseLadder(names ...string) Ladder {
	ladder, err := ParseLadder(names...)
	if err != nil {
		panic(err)
	}
	return ladder
}

func parseBucket(name string) (Bucket, error) {
	switch name {
	case "1d":
		return Bucket{Name: name, Truncate: func(t time.Time) time.Time {
			t = t.UTC()
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}}, nil
	case "1mo":
		return Bucket{Name: name, Truncate: func(t time.Time) time.Time {
			t = t.UTC()
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		}}, nil
	}
	width, err := time.ParseDuration(name)
	if err != nil || width <= 0 {
		return Bucket{}, fmt.Errorf("resample ladder: invalid bucket %q", name)
	}
	if width > 24*time.Hour || (24*time.Hour)%width != 0 {
		return Bucket{}, fmt.Errorf("resample ladder: bucket %q must divide a day", name)
	}
	return Bucket{Name: name, Truncate: func(t time.Time) time.Time {
		return t.UTC().Truncate(width)
	}}, nil
}

// Resampled is the outcome of Resample. Bucket is empty when rows passed through unchanged.
type Resampled struct {
	Records []Record
	Bucket  string
	Passes  int
}

// Resample reduces records to at most maxDatapoints rows by walking the ladder,
// replacing each (bucket, generation type) group with its median. Every pass
// aggregates the raw records, so bucket widths need not nest.
func Resample(records []Record, maxDatapoints int, ladder Ladder) (Resampled, error) {
	if maxDatapoints <= 0 {
		return Resampled{}, apperr.Validation("max_datapoints must be positive")
	}
	out := Resampled{Records: records}
	for _, bucket := range ladder {
		if len(out.Records) <= maxDatapoints {
			return out, nil
		}
		out.Records = aggregateMedian(records, bucket)
		out.Bucket = bucket.Name
		out.Passes++
	}
	if len(out.Records) > maxDatapoints {
		return Resampled{}, apperr.TooMuchData("%d rows remain after resampling to %s buckets, above the limit of %d; narrow the time window", len(out.Records), out.Bucket, maxDatapoints)
	}
	return out, nil
}

type groupKey struct {
	start            time.Time
	generationTypeID int64
}

type group struct {
	first  Record
	values []float64
}

func aggregateMedian(records []Record, bucket Bucket) []Record {
	groups := make(map[groupKey]*group)
	order := make([]groupKey, 0)
	for _, rec := range records {
		key := groupKey{start: bucket.Truncate(rec.Timestamp), generationTypeID: rec.GenerationTypeID}
		g := groups[key]
		if g == nil {
			g = &group{first: rec}
			groups[key] = g
			order = append(order, key)
		}
		g.values = append(g.values, rec.AggregatedGeneration)
	}

	sort.Slice(order, func(i, j int) bool {
		if !order[i].start.Equal(order[j].start) {
			return order[i].start.Before(order[j].start)
		}
		return order[i].generationTypeID < order[j].generationTypeID
	})

	result := make([]Record, 0, len(order))
	for _, key := range order {
		g := groups[key]
		result = append(result, Record{
			RegionID:             g.first.RegionID,
			RegionCode:           g.first.RegionCode,
			GenerationTypeID:     key.generationTypeID,
			Timestamp:            key.start,
			AggregatedGeneration: median(g.values),
		})
	}
	return result
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return stat.Mean(sorted[n/2-1:n/2+1], nil)
}
