package httpserver

import (
	"context"

	"github.com/atrimbitas/docuvault/internal/model"
)

type ctxKey string

const accountKey ctxKey = "dv.account"

// withAccount stores the authenticated account in the request context.
func withAccount(ctx context.Context, a *model.Account) context.Context {
	return context.WithValue(ctx, accountKey, a)
}

// accountFromCtx fetches the authenticated account from the context.
func accountFromCtx(ctx context.Context) (*model.Account, bool) {
	a, ok := ctx.Value(accountKey).(*model.Account)
	return a, ok
}
