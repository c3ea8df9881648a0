// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package stats

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestIncrementNumQueriesAccumulates(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	for i := 0; i < 5; i++ {
		s.IncrementNumQueries()
	}
	require.Equal(t, int64(5), atomic.LoadInt64(&s.numQueries))
}

func TestIncrementNumQueriesWithNilLogger(t *testing.T) {
	s := New(nil)
	require.NotPanics(t, func() { s.IncrementNumQueries() })
}
