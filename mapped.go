// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import "context"

// MappedTransport lets a nested service's client speak through its parent's
// transport. Each Send folds the inner request into the parent request using
// the captured call arguments, performs a single send on the outer transport
// and unfolds the parent response again.
//
// MappedTransport is a value; copying it copies the captured arguments while
// the outer transport handle is shared. Layers stack without limit and never
// issue a send of their own.
type MappedTransport[InnerReq, OuterReq, InnerResp, OuterResp, Args any] struct {
	outer   Transport[OuterReq, OuterResp]
	args    Args
	toInner func(OuterResp) (InnerResp, bool)
	toOuter func(Args, InnerReq) OuterReq
}

// NewMappedTransport binds a nested client to outer. toInner extracts the
// nested response from the parent response and reports false on a tag
// mismatch; toOuter rebuilds the parent request from args and the nested
// request.
func NewMappedTransport[InnerReq, OuterReq, InnerResp, OuterResp, Args any](
	outer Transport[OuterReq, OuterResp],
	args Args,
	toInner func(OuterResp) (InnerResp, bool),
	toOuter func(Args, InnerReq) OuterReq,
) MappedTransport[InnerReq, OuterReq, InnerResp, OuterResp, Args] {
	return MappedTransport[InnerReq, OuterReq, InnerResp, OuterResp, Args]{
		outer:   outer,
		args:    args,
		toInner: toInner,
		toOuter: toOuter,
	}
}

// Args returns a copy of the captured call arguments
func (m MappedTransport[InnerReq, OuterReq, InnerResp, OuterResp, Args]) Args() Args {
	return m.args
}

// Send implements Transport. Errors from the outer transport are returned
// verbatim, so a failure deep in a chain surfaces with the base transport's
// error type.
func (m MappedTransport[InnerReq, OuterReq, InnerResp, OuterResp, Args]) Send(ctx context.Context, req InnerReq) (InnerResp, error) {
	var zero InnerResp
	outerReq := m.toOuter(m.args, req)
	resp, err := m.outer.Send(ctx, outerReq)
	if err != nil {
		return zero, err
	}
	inner, ok := m.toInner(resp)
	if !ok {
		want := ""
		if msg, isMsg := any(outerReq).(Message); isMsg {
			want = msg.Method()
		}
		return zero, wrongResponse(want, any(resp))
	}
	return inner, nil
}
