package server

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/gowsd/gowsd/internal/wsderr"
)

// ErrorTranslationInterceptor maps any *wsderr.Error surfaced by a handler
// into the matching connect.Code, so callers never see the internal Kind
// taxonomy directly.
func ErrorTranslationInterceptor() connect.UnaryInterceptorFunc {
	interceptor := func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			resp, err := next(ctx, req)
			if err == nil {
				return resp, nil
			}
			var werr *wsderr.Error
			if !errors.As(err, &werr) {
				return resp, err
			}
			return resp, connect.NewError(codeForKind(werr.Kind), err)
		}
	}
	return connect.UnaryInterceptorFunc(interceptor)
}

func codeForKind(k wsderr.Kind) connect.Code {
	switch k {
	case wsderr.KindInvalidArgument:
		return connect.CodeInvalidArgument
	case wsderr.KindBadMessage:
		return connect.CodeInvalidArgument
	case wsderr.KindUnsupported:
		return connect.CodeUnimplemented
	case wsderr.KindNotApplicable:
		return connect.CodeFailedPrecondition
	case wsderr.KindAlreadyPresent:
		return connect.CodeAlreadyExists
	case wsderr.KindNotFound:
		return connect.CodeNotFound
	case wsderr.KindRejected:
		return connect.CodePermissionDenied
	case wsderr.KindTimeout:
		return connect.CodeDeadlineExceeded
	default:
		return connect.CodeInternal
	}
}
