package server

import (
	"context"

	"connectrpc.com/connect"
)

// Client calls the control surface's procedures directly via
// connect.Client, the same mechanism a generated stub would use, without
// requiring a compiled protobuf service definition.
type Client struct {
	status       *connect.Client[StatusRequest, StatusResponse]
	listFT       *connect.Client[ListFTAttemptsRequest, ListFTAttemptsResponse]
	startDPP     *connect.Client[StartDPPBootstrapRequest, StartDPPBootstrapResponse]
	estimateRate *connect.Client[EstimateRateRequest, EstimateRateResponse]
	triggerFT    *connect.Client[TriggerFTTransitionRequest, TriggerFTTransitionResponse]
	decodeAttrs  *connect.Client[DecodeNetlinkAttrsRequest, DecodeNetlinkAttrsResponse]
}

// NewClient builds a Client targeting baseURL (e.g. "http://127.0.0.1:50151").
func NewClient(httpClient connect.HTTPClient, baseURL string) *Client {
	opts := []connect.ClientOption{connect.WithCodec(jsonCodec{})}
	return &Client{
		status:       connect.NewClient[StatusRequest, StatusResponse](httpClient, baseURL+procedurePath("Status"), opts...),
		listFT:       connect.NewClient[ListFTAttemptsRequest, ListFTAttemptsResponse](httpClient, baseURL+procedurePath("ListFTAttempts"), opts...),
		startDPP:     connect.NewClient[StartDPPBootstrapRequest, StartDPPBootstrapResponse](httpClient, baseURL+procedurePath("StartDPPBootstrap"), opts...),
		estimateRate: connect.NewClient[EstimateRateRequest, EstimateRateResponse](httpClient, baseURL+procedurePath("EstimateRate"), opts...),
		triggerFT:    connect.NewClient[TriggerFTTransitionRequest, TriggerFTTransitionResponse](httpClient, baseURL+procedurePath("TriggerFTTransition"), opts...),
		decodeAttrs:  connect.NewClient[DecodeNetlinkAttrsRequest, DecodeNetlinkAttrsResponse](httpClient, baseURL+procedurePath("DecodeNetlinkAttrs"), opts...),
	}
}

// Status fetches the station's configured identity and enabled subsystems.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	resp, err := c.status.CallUnary(ctx, connect.NewRequest(&StatusRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// ListFTAttempts fetches every roaming attempt currently pending a response.
func (c *Client) ListFTAttempts(ctx context.Context) (*ListFTAttemptsResponse, error) {
	resp, err := c.listFT.CallUnary(ctx, connect.NewRequest(&ListFTAttemptsRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// StartDPPBootstrap triggers a bootstrap/authentication attempt against uri.
func (c *Client) StartDPPBootstrap(ctx context.Context, uri string) (*StartDPPBootstrapResponse, error) {
	resp, err := c.startDPP.CallUnary(ctx, connect.NewRequest(&StartDPPBootstrapRequest{URI: uri}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// EstimateRate fetches a PHY rate estimate for a peer capability snapshot.
func (c *Client) EstimateRate(ctx context.Context, req *EstimateRateRequest) (*EstimateRateResponse, error) {
	resp, err := c.estimateRate.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// TriggerFTTransition begins a Fast BSS Transition roaming attempt toward
// the target BSS described by req.
func (c *Client) TriggerFTTransition(ctx context.Context, req *TriggerFTTransitionRequest) (*TriggerFTTransitionResponse, error) {
	resp, err := c.triggerFT.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// DecodeNetlinkAttrs decodes a raw nl80211 attribute stream for diagnostics.
func (c *Client) DecodeNetlinkAttrs(ctx context.Context, req *DecodeNetlinkAttrsRequest) (*DecodeNetlinkAttrsResponse, error) {
	resp, err := c.decodeAttrs.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
