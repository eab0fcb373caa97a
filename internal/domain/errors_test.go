package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsTimeout_WrapsDeadline(t *testing.T) {
	err := AsTimeout(fmt.Errorf("wait: %w", context.DeadlineExceeded), "bet confirmation", time.Minute)

	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "bet confirmation", te.Op)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "timed out after 1m0s")
}

func TestAsTimeout_LeavesOtherErrors(t *testing.T) {
	base := errors.New("boom")
	assert.Same(t, base, AsTimeout(base, "op", time.Second))
	assert.NoError(t, AsTimeout(nil, "op", time.Second))
}
