package pipeline

import (
	"context"
	"sync"

	"github.com/vvka-141/tpchload/pkg/tpch"
)

// stubProvider hands out one session, failing the first len(failures) attempts.
type stubProvider struct {
	mu       sync.Mutex
	session  tpch.Session
	failures []error
	acquires int
	releases int
}

func (p *stubProvider) Acquire(context.Context) (tpch.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acquires++
	if p.acquires <= len(p.failures) {
		return nil, p.failures[p.acquires-1]
	}
	return p.session, nil
}

func (p *stubProvider) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releases++
	return nil
}
