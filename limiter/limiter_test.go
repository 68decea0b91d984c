package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrategyFromName(t *testing.T) {
	t.Parallel()
	assert.IsType(t, &TokenBucketStrategy{}, StrategyFromName("token_bucket"))
	assert.IsType(t, &FixedWindowStrategy{}, StrategyFromName("fixed_window"))
	// 未知名称退回固定窗口
	assert.IsType(t, &FixedWindowStrategy{}, StrategyFromName(""))
	assert.IsType(t, &FixedWindowStrategy{}, StrategyFromName("sliding_log"))
}
