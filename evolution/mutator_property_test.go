package evolution

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/types"
)

// 任意输入配置经任意次变异后，识别键始终落在硬边界内。
func TestProperty_MutationStaysWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("mutated config respects hard bounds", prop.ForAll(
		func(lr float64, mem int, retries int, seed int64, rounds int) bool {
			config := DefaultConfig()
			config.Rand = rand.New(rand.NewSource(seed))
			m := New(config, zap.NewNop())

			cfg := types.AgentConfig{
				types.ConfigKeyLearningRate: lr,
				types.ConfigKeyMemorySize:   float64(mem),
				types.ConfigKeyMaxRetries:   float64(retries),
			}
			for i := 0; i < rounds; i++ {
				cfg = m.Mutate(cfg)
				lrOut := cfg[types.ConfigKeyLearningRate]
				memOut := cfg[types.ConfigKeyMemorySize]
				retriesOut := cfg[types.ConfigKeyMaxRetries]
				if lrOut < LearningRateMin || lrOut > LearningRateMax {
					return false
				}
				if memOut < MemorySizeMin || memOut > MemorySizeMax {
					return false
				}
				if retriesOut < MaxRetriesMin || retriesOut > MaxRetriesMax {
					return false
				}
			}
			return true
		},
		gen.Float64Range(0, 1),
		gen.IntRange(-100, 5000),
		gen.IntRange(-5, 50),
		gen.Int64(),
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}
