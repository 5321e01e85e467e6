package derivation

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/japaniel/crosstem/pkg/crosstem"
)

// LoadLanguages builds one Stemmer per code in parallel. Every code is
// validated before any data is loaded. The first failure cancels the
// remaining loads and closes the stemmers already built.
func LoadLanguages(ctx context.Context, src Source, codes []string, opts ...Option) (map[string]*Stemmer, error) {
	for _, code := range codes {
		if _, err := crosstem.LookupLanguage(code); err != nil {
			return nil, err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	var mu sync.Mutex
	out := make(map[string]*Stemmer, len(codes))
	for _, code := range codes {
		code := code
		g.Go(func() error {
			s, err := New(gctx, code, src, opts...)
			if err != nil {
				return err
			}
			mu.Lock()
			out[code] = s
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, s := range out {
			s.Close()
		}
		return nil, err
	}
	return out, nil
}
