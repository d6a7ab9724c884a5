package concretise

import (
	"os"

	"github.com/eth-cscs/uenv/pkg/uenv/envvars"
)

// GetEnv folds every view's environment updates, in env.Views order,
// into one set and materialises it against the process environment.
// Later views may override scalars set by earlier ones and append to
// prefix paths they started.
func (env *Env) GetEnv() []envvars.Scalar {
	merged := envvars.NewSet()
	for _, qv := range env.Views {
		merged.Merge(qv.View.Env)
	}
	return merged.GetValues(func(name string) (string, bool) {
		return os.LookupEnv(name)
	})
}
