package embedding

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/siherrmann/captioner/helper"
)

// Embedder is the batched embedding capability consumed by the consensus engine and the candidate selector
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedFunc embeds a batch of texts, one vector per text in input order
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// InitFunc builds the underlying embedding capability.
// The returned close function may be nil.
type InitFunc func() (EmbedFunc, func() error, error)

type backend struct {
	embed EmbedFunc
	close func() error
	err   error
}

// Provider gives process-wide access to one embedding capability.
// The capability is built on first use, exactly once even under concurrent
// first calls. A failed initialization is remembered and returned by every
// call until Reset.
type Provider struct {
	name    string
	init    InitFunc
	mu      sync.Mutex
	backend atomic.Pointer[backend]
}

// NewProvider creates a lazily initialized provider
func NewProvider(name string, init InitFunc) *Provider {
	return &Provider{
		name: name,
		init: init,
	}
}

// NewStaticProvider wraps an already built EmbedFunc
func NewStaticProvider(name string, embed EmbedFunc) *Provider {
	return NewProvider(name, func() (EmbedFunc, func() error, error) {
		if embed == nil {
			return nil, nil, fmt.Errorf("embed function is nil")
		}
		return embed, nil, nil
	})
}

// Name returns the provider name used in errors and logs
func (p *Provider) Name() string {
	return p.name
}

// Initialize builds the capability now instead of on first Embed
func (p *Provider) Initialize() error {
	return p.load().err
}

// Embed returns one vector per text, in the same order, from a single batched call
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	b := p.load()
	if b.err != nil {
		return nil, b.err
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := b.embed(ctx, texts)
	if err != nil {
		return nil, helper.DependencyCall(p.name, err)
	}
	if len(vectors) != len(texts) {
		return nil, helper.DependencyCall(p.name, fmt.Errorf("embedding count mismatch: got %d embeddings for %d texts", len(vectors), len(texts)))
	}

	return vectors, nil
}

// Reset drops the capability (or the remembered failure) so the next call initializes again
func (p *Provider) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	b := p.backend.Swap(nil)
	if b != nil && b.close != nil {
		return b.close()
	}
	return nil
}

// Close releases the underlying capability
func (p *Provider) Close() error {
	return p.Reset()
}

func (p *Provider) load() *backend {
	if b := p.backend.Load(); b != nil {
		return b
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if b := p.backend.Load(); b != nil {
		return b
	}

	b := &backend{}
	if p.init == nil {
		b.err = helper.DependencyInit(p.name, fmt.Errorf("no initializer configured"))
	} else {
		embed, closeFn, err := p.init()
		switch {
		case err != nil:
			b.err = helper.DependencyInit(p.name, err)
		case embed == nil:
			b.err = helper.DependencyInit(p.name, fmt.Errorf("initializer returned no embed function"))
		default:
			b.embed = embed
			b.close = closeFn
		}
	}

	p.backend.Store(b)
	return b
}
