package shared

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

// CandlestickSnapshot represents a rolling snapshot of candlestick data for a
// market and timeframe. Updates are idempotent with respect to duplicate
// delivery: a candle sharing the timestamp of the most recent entry replaces
// it in place (an in-progress candle superseded by its closed form), and
// candles older than the most recent entry are rejected.
type CandlestickSnapshot struct {
	data      []*Candlestick
	dataMtx   sync.RWMutex
	start     atomic.Int32
	count     atomic.Int32
	size      atomic.Int32
	timeframe Timeframe
}

// NewCandlestickSnapshot initializes a new candlestick snapshot.
func NewCandlestickSnapshot(size int32, timeframe Timeframe) (*CandlestickSnapshot, error) {
	if size <= 0 {
		return nil, errors.New("snapshot size must be positive")
	}

	snapshot := &CandlestickSnapshot{
		data:      make([]*Candlestick, size),
		timeframe: timeframe,
	}

	snapshot.size.Store(size)
	return snapshot, nil
}

// Update adds the provided candlestick to the snapshot.
func (s *CandlestickSnapshot) Update(candle *Candlestick) error {
	if candle.Timeframe != s.timeframe {
		return fmt.Errorf("expected candles with timeframe %s, got %s",
			s.timeframe.String(), candle.Timeframe.String())
	}

	s.dataMtx.Lock()
	defer s.dataMtx.Unlock()

	start := s.start.Load()
	count := s.count.Load()
	size := s.size.Load()

	if count > 0 {
		lastIdx := (start + count - 1) % size
		last := s.data[lastIdx]

		switch {
		case candle.Timestamp == last.Timestamp:
			// Duplicate delivery or a closed candle superseding its
			// in-progress form, replace instead of appending.
			s.data[lastIdx] = candle
			return nil
		case candle.Timestamp < last.Timestamp:
			return fmt.Errorf("out of order candle for %s: %d < %d",
				candle.Market, candle.Timestamp, last.Timestamp)
		}
	}

	end := (start + count) % size
	s.data[end] = candle

	if count == size {
		// Overwrite the oldest entry when the snapshot is at capacity.
		s.start.Store((start + 1) % size)
	} else {
		s.count.Add(1)
	}

	return nil
}

// Last returns the last added entry for the snapshot.
func (s *CandlestickSnapshot) Last() *Candlestick {
	s.dataMtx.RLock()
	defer s.dataMtx.RUnlock()

	start := s.start.Load()
	count := s.count.Load()
	size := s.size.Load()
	if count == 0 {
		return nil
	}

	end := (start + count - 1) % size
	return s.data[end]
}

// LastN fetches the last n number of elements from the snapshot.
func (s *CandlestickSnapshot) LastN(n int32) []*Candlestick {
	s.dataMtx.RLock()
	defer s.dataMtx.RUnlock()

	if n <= 0 {
		return nil
	}

	start := s.start.Load()
	count := s.count.Load()
	size := s.size.Load()

	// Clamp the number of elements expected if it is greater than the snapshot count.
	if n > count {
		n = count
	}

	set := make([]*Candlestick, n)
	start = (start + count - n + size) % size

	for i := range n {
		idx := (start + i) % size
		set[i] = s.data[idx]
	}

	return set
}

// Count returns the number of entries held by the snapshot.
func (s *CandlestickSnapshot) Count() int32 {
	return s.count.Load()
}

// series fetches the last n candles, optionally excluding an in-progress
// trailing candle, and extracts a field from each via the provided accessor.
func (s *CandlestickSnapshot) series(n int32, includeUnclosed bool, field func(*Candlestick) float64) []float64 {
	candles := s.LastN(n)
	if len(candles) > 0 && !includeUnclosed && !candles[len(candles)-1].Closed {
		candles = candles[:len(candles)-1]
	}

	set := make([]float64, len(candles))
	for idx := range candles {
		set[idx] = field(candles[idx])
	}

	return set
}

// Closes returns the close prices of the last n candles in chronological order.
func (s *CandlestickSnapshot) Closes(n int32, includeUnclosed bool) []float64 {
	return s.series(n, includeUnclosed, func(c *Candlestick) float64 { return c.Close })
}

// Highs returns the high prices of the last n candles in chronological order.
func (s *CandlestickSnapshot) Highs(n int32, includeUnclosed bool) []float64 {
	return s.series(n, includeUnclosed, func(c *Candlestick) float64 { return c.High })
}

// Lows returns the low prices of the last n candles in chronological order.
func (s *CandlestickSnapshot) Lows(n int32, includeUnclosed bool) []float64 {
	return s.series(n, includeUnclosed, func(c *Candlestick) float64 { return c.Low })
}

// Volumes returns the volumes of the last n candles in chronological order.
func (s *CandlestickSnapshot) Volumes(n int32, includeUnclosed bool) []float64 {
	return s.series(n, includeUnclosed, func(c *Candlestick) float64 { return c.Volume })
}
