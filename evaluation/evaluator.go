package evaluation

import (
	"context"

	"github.com/BaSui01/swarmflow/types"
)

// Evaluator 对一次输出打分。所有分量取值 [0,1]，
// Overall 为三个分量的算术平均，保留三位小数。
type Evaluator interface {
	Evaluate(ctx context.Context, output string, tc types.TaskContext) (types.ScoreSet, error)
}
