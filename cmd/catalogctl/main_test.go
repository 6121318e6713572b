// cmd/catalogctl/main_test.go
package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingLock struct {
	closed int
}

func (l *countingLock) Acquire(ctx context.Context, name string) (context.Context, func(), error) {
	return ctx, func() {}, nil
}

func (l *countingLock) Close() error {
	l.closed++
	return nil
}

func TestAppCloseReleasesLockOnce(t *testing.T) {
	lock := &countingLock{}
	a := &app{lock: lock}

	a.close()
	a.close()

	assert.Equal(t, 1, lock.closed)
	assert.Nil(t, a.lock)
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd(&app{})

	for _, name := range []string{"import", "seed", "migrate", "runs"} {
		cmd, _, err := root.Find([]string{name})
		assert.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
}
