package scan

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/api/iterator"

	"dental-bot/api/internal/dental"
	"dental-bot/api/internal/llm"
)

// Collect drains st and returns the fragments joined in arrival order.
// A cancelled ctx wins over everything else: the caller gets ctx.Err() and
// no text, even if some fragments already arrived.
func Collect(ctx context.Context, engine string, st llm.Stream) (string, error) {
	defer st.Close()

	var b strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		frag, err := st.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", &dental.StreamError{Engine: engine, Err: err}
		}
		b.WriteString(frag)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}
