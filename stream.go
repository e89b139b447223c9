package shardfuse

import "time"

// The streaming protocol builds shards from keys arriving in
// non-decreasing order. Because keys are sorted, each shard sees its keys
// contiguously and a single accumulating buffer suffices; shards land on
// disk in ascending prefix order, so body offsets match prefix order.
//
// Random-order workloads cannot use this path; pre-group per shard and use
// Add, or let BulkAdd do both.

// StreamPrepare resets the streaming state. Calling it mid-stream discards
// any unflushed keys.
func (s *Sink[T]) StreamPrepare() {
	s.stream = s.stream[:0]
	s.streamPrefix = 0
	s.streamLast = 0
}

// StreamAdd accumulates one key. Keys must be non-decreasing across the
// whole stream; a key below its predecessor fails with ErrOutOfOrder and
// leaves the file in the state of the last successful flush.
//
// Crossing a shard boundary flushes the accumulated buffer as one filter
// for the previous prefix.
func (s *Sink[T]) StreamAdd(key uint64) error {
	if key < s.streamLast {
		return &ErrOutOfOrder{Last: s.streamLast, Key: key}
	}
	prefix := s.Prefix(key)
	if prefix != s.streamPrefix && len(s.stream) > 0 {
		if err := s.flushStream(); err != nil {
			return err
		}
	}
	s.streamPrefix = prefix
	s.stream = append(s.stream, key)
	s.streamLast = key
	return nil
}

// StreamFinalize flushes the remaining buffer, completing the stream. The
// sink can start a fresh stream afterwards.
func (s *Sink[T]) StreamFinalize() error {
	if len(s.stream) == 0 {
		return nil
	}
	return s.flushStream()
}

func (s *Sink[T]) flushStream() error {
	start := time.Now()
	f := &Filter[T]{}
	err := f.Populate(s.stream)
	s.metrics.RecordBuild(len(s.stream), time.Since(start), err)
	s.logger.LogBuild(len(s.stream), time.Since(start), err)
	if err != nil {
		return err
	}
	if err := s.Add(f, s.streamPrefix); err != nil {
		return err
	}
	s.stream = s.stream[:0]
	return nil
}
