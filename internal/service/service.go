// Package service ties the listing store to the inference dispatcher. It is
// what the HTTP layer talks to.
package service

import (
	"context"

	"modelfolio/internal/demo"
	"modelfolio/internal/dispatch"
	"modelfolio/internal/listing"
	"modelfolio/pkg/types"
)

// Dispatcher runs one normalized demo request.
type Dispatcher interface {
	Dispatch(ctx context.Context, req types.DemoRequest) (types.DemoResult, error)
}

// Service serves listings and runs their demos.
type Service struct {
	store listing.Store
	disp  Dispatcher
	gate  *Admission
}

// New constructs a Service.
func New(store listing.Store, disp Dispatcher) *Service {
	return &Service{store: store, disp: disp}
}

// WithAdmission bounds concurrent dispatches through gate. A nil gate disables the bound.
func (s *Service) WithAdmission(gate *Admission) *Service {
	s.gate = gate
	return s
}

// RunDemo dispatches an already packaged request.
func (s *Service) RunDemo(ctx context.Context, req types.DemoRequest) (types.DemoResult, error) {
	return s.dispatch(ctx, req)
}

func (s *Service) dispatch(ctx context.Context, req types.DemoRequest) (types.DemoResult, error) {
	if s.gate != nil {
		release, err := s.gate.Begin(ctx)
		if err != nil {
			return types.DemoResult{}, err
		}
		defer release()
	}
	return s.disp.Dispatch(ctx, req)
}

// RunListingDemo runs the demo of listing id with the listing's demo type
// and model override. viewer is the current user id, or empty.
func (s *Service) RunListingDemo(ctx context.Context, id, viewer string, in types.ListingDemoRequest) (types.DemoResult, error) {
	l, err := s.Listing(ctx, id, viewer)
	if err != nil {
		return types.DemoResult{}, err
	}
	req, err := demo.Build(l.DemoType, in.Input, in.Context, l.APIEndpoint)
	if err != nil {
		return types.DemoResult{}, dispatch.ErrInput(err.Error())
	}
	return s.dispatch(ctx, req)
}

// Listing returns listing id if viewer may see it. Hidden listings are reported as not found.
func (s *Service) Listing(ctx context.Context, id, viewer string) (types.Listing, error) {
	l, err := s.store.Get(ctx, id)
	if err != nil {
		return types.Listing{}, err
	}
	if !l.VisibleTo(viewer) {
		return types.Listing{}, listing.ErrNotFound
	}
	return l, nil
}

// PublicListings returns the public catalog.
func (s *Service) PublicListings(ctx context.Context) ([]types.Listing, error) {
	return s.store.Public(ctx)
}

// OwnerListings returns owner's listings that viewer may see.
func (s *Service) OwnerListings(ctx context.Context, owner, viewer string) ([]types.Listing, error) {
	all, err := s.store.ByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if viewer == owner {
		return all, nil
	}
	out := make([]types.Listing, 0, len(all))
	for _, l := range all {
		if l.VisibleTo(viewer) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Ready reports whether the listing store answers.
func (s *Service) Ready(ctx context.Context) bool {
	return s.store.Ping(ctx) == nil
}
