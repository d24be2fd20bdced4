package runner

import (
	"context"
	"errors"

	"inferd/internal/llm"
	"inferd/pkg/types"
)

// Tokenize counts the tokens of the input under the requested model's
// vocabulary. Tokenize-only models go through the on-demand-swept vocab
// cache rather than the scheduler's cache: counting is cheap and must not
// queue behind a multi-second inference.
func (s *Service) Tokenize(ctx context.Context, req types.TokenizeRequest) (types.TokenizeResponse, error) {
	if s.q.Closed() {
		return types.TokenizeResponse{}, shuttingDownError{}
	}
	mdl, err := s.resolveModel(req.Model)
	if err != nil {
		return types.TokenizeResponse{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.TokenizeResponse{}, err
	}
	var count int
	err = s.vocab.With(mdl.Path, func(model llm.Model) error {
		n, err := s.adapter.TokenCount(model, req.Input)
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		if errors.Is(err, llm.ErrNotBuilt) {
			err = ErrDependencyUnavailable(err.Error())
		}
		return types.TokenizeResponse{}, err
	}
	return types.TokenizeResponse{Count: count}, nil
}
