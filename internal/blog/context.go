package blog

import "context"

type blogCtxKey struct{}

// ContextWithBlog stashes the blog loaded by the ownership gate so the
// wrapped handler does not fetch it again.
func ContextWithBlog(ctx context.Context, b *Blog) context.Context {
	return context.WithValue(ctx, blogCtxKey{}, b)
}

func BlogFromContext(ctx context.Context) (*Blog, bool) {
	b, ok := ctx.Value(blogCtxKey{}).(*Blog)
	return b, ok
}
