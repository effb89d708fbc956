package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	coremetrics "github.com/voltplan/voltplan/core/metrics"
)

type recordingSink struct {
	runs int
	err  error
}

func (r *recordingSink) RecordPlanningRun(coremetrics.PlanningRun) error { r.runs++; return r.err }
func (r *recordingSink) RecordPlanWritten(coremetrics.PlanWritten) error { return r.err }
func (r *recordingSink) RecordPriceUpdate(coremetrics.PriceUpdate) error { return r.err }

func TestMultiSinkFansOut(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{err: errors.New("sink down")}
	m := NewMultiSink(a, b)

	err := m.RecordPlanningRun(coremetrics.PlanningRun{})
	assert.Error(t, err)
	assert.Equal(t, 1, a.runs)
	assert.Equal(t, 1, b.runs)
}
