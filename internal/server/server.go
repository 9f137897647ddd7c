// Package server implements the station daemon's control surface: a small
// ConnectRPC service exposing status, pending FT attempts, DPP bootstrap
// triggering, FT transition triggering, PHY rate estimation, and raw
// netlink-attribute decoding for diagnostics, plus a standard gRPC health
// endpoint.
package server

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net"
	"net/http"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"

	"github.com/gowsd/gowsd/internal/band"
	"github.com/gowsd/gowsd/internal/config"
	"github.com/gowsd/gowsd/internal/dpp"
	"github.com/gowsd/gowsd/internal/ft"
	"github.com/gowsd/gowsd/internal/metrics"
	gwnetlink "github.com/gowsd/gowsd/internal/netlink"
	"github.com/gowsd/gowsd/internal/wsderr"
)

const serviceName = "gowsd.station.v1.StationService"

// procedurePath builds the HTTP path a given RPC method is mounted at,
// following the "/package.Service/Method" shape connect-go clients expect.
func procedurePath(method string) string {
	return "/" + serviceName + "/" + method
}

// StationServer backs the control-surface RPCs with the live daemon state:
// the FT engine's pending-attempt set, the loaded configuration, and
// (optionally) a live netlink socket for diagnostic queries.
type StationServer struct {
	cfg       *config.Config
	engine    *ft.Engine
	runner    *ft.Runner
	logger    *slog.Logger
	collector *metrics.Collector
	netConn   *gwnetlink.Conn
}

// New builds a StationServer and mounts it (plus a gRPC health endpoint)
// onto a fresh http.ServeMux, mirroring the teacher's New(mgr, logger,
// opts...) (path, handler) shape but returning a ready-to-serve mux since
// this service exposes more than one procedure path. collector may be nil,
// in which case RPC handlers skip recording metrics. netConn may be nil, in
// which case DecodeNetlinkAttrs's live-query mode returns Unsupported.
// runner may be nil, in which case TriggerFTTransition only renders the
// request IEs instead of placing them on the air.
func New(cfg *config.Config, engine *ft.Engine, runner *ft.Runner, logger *slog.Logger, collector *metrics.Collector, netConn *gwnetlink.Conn, opts ...connect.HandlerOption) http.Handler {
	srv := &StationServer{
		cfg:       cfg,
		engine:    engine,
		runner:    runner,
		logger:    logger.With(slog.String("component", "server")),
		collector: collector,
		netConn:   netConn,
	}

	codecOpt := connect.WithCodec(jsonCodec{})
	allOpts := append([]connect.HandlerOption{codecOpt}, opts...)

	mux := http.NewServeMux()
	mux.Handle(procedurePath("Status"),
		connect.NewUnaryHandler(procedurePath("Status"), srv.Status, allOpts...))
	mux.Handle(procedurePath("ListFTAttempts"),
		connect.NewUnaryHandler(procedurePath("ListFTAttempts"), srv.ListFTAttempts, allOpts...))
	mux.Handle(procedurePath("StartDPPBootstrap"),
		connect.NewUnaryHandler(procedurePath("StartDPPBootstrap"), srv.StartDPPBootstrap, allOpts...))
	mux.Handle(procedurePath("EstimateRate"),
		connect.NewUnaryHandler(procedurePath("EstimateRate"), srv.EstimateRate, allOpts...))
	mux.Handle(procedurePath("TriggerFTTransition"),
		connect.NewUnaryHandler(procedurePath("TriggerFTTransition"), srv.TriggerFTTransition, allOpts...))
	mux.Handle(procedurePath("DecodeNetlinkAttrs"),
		connect.NewUnaryHandler(procedurePath("DecodeNetlinkAttrs"), srv.DecodeNetlinkAttrs, allOpts...))

	checker := grpchealth.NewStaticChecker(serviceName)
	healthPath, healthHandler := grpchealth.NewHandler(checker)
	mux.Handle(healthPath, healthHandler)

	return mux
}

// Status reports the station's configured identity and enabled subsystems.
func (s *StationServer) Status(ctx context.Context, req *connect.Request[StatusRequest]) (*connect.Response[StatusResponse], error) {
	s.logger.InfoContext(ctx, "Status called")
	return connect.NewResponse(&StatusResponse{
		Interface:  s.cfg.Station.Interface,
		MAC:        s.cfg.Station.MAC,
		FTEnabled:  s.cfg.FT.Enabled,
		DPPEnabled: s.cfg.DPP.Enabled,
	}), nil
}

// ListFTAttempts reports every roaming attempt currently pending a response.
func (s *StationServer) ListFTAttempts(ctx context.Context, req *connect.Request[ListFTAttemptsRequest]) (*connect.Response[ListFTAttemptsResponse], error) {
	s.logger.InfoContext(ctx, "ListFTAttempts called")
	pending := s.engine.Snapshot()
	attempts := make([]FTAttemptSummary, 0, len(pending))
	for _, a := range pending {
		attempts = append(attempts, FTAttemptSummary{
			Ifindex: a.Ifindex,
			AA:      a.AA.String(),
			State:   a.State.String(),
		})
	}
	return connect.NewResponse(&ListFTAttemptsResponse{Attempts: attempts}), nil
}

// StartDPPBootstrap parses uri as a DPP bootstrapping URI and reports it
// accepted, or rejects it if it fails to parse. It only validates the URI
// and counts the outcome; it does not start a DPP authentication exchange.
func (s *StationServer) StartDPPBootstrap(ctx context.Context, req *connect.Request[StartDPPBootstrapRequest]) (*connect.Response[StartDPPBootstrapResponse], error) {
	s.logger.InfoContext(ctx, "StartDPPBootstrap called", slog.String("uri", req.Msg.URI))
	if !s.cfg.DPP.Enabled {
		if s.collector != nil {
			s.collector.DPPExchangesTotal.WithLabelValues(s.cfg.DPP.Role, "rejected").Inc()
		}
		return nil, connect.NewError(connect.CodeFailedPrecondition, errDPPDisabled)
	}
	if _, err := dpp.ParseURI(req.Msg.URI); err != nil {
		if s.collector != nil {
			s.collector.DPPExchangesTotal.WithLabelValues(s.cfg.DPP.Role, "rejected").Inc()
		}
		return nil, err
	}
	if s.collector != nil {
		s.collector.DPPExchangesTotal.WithLabelValues(s.cfg.DPP.Role, "accepted").Inc()
	}
	return connect.NewResponse(&StartDPPBootstrapResponse{Accepted: true}), nil
}

var errDPPDisabled = dppDisabledError{}

type dppDisabledError struct{}

func (dppDisabledError) Error() string { return "dpp subsystem is disabled in configuration" }

// EstimateRate estimates the highest PHY rate internal/band finds usable
// for a peer's advertised capabilities and the local radio's own, trying
// VHT, then HT, then falling back to non-HT rates.
func (s *StationServer) EstimateRate(ctx context.Context, req *connect.Request[EstimateRateRequest]) (*connect.Response[EstimateRateResponse], error) {
	s.logger.InfoContext(ctx, "EstimateRate called", slog.Int("rssi", int(req.Msg.RSSI)))

	local := band.Capability{SupportedRates: req.Msg.LocalSupportedRates}
	local.HTSupported = req.Msg.LocalHTSupported
	copy(local.HTMCSSet[:], req.Msg.LocalHTMCSSet)
	local.VHTSupported = req.Msg.LocalVHTSupported
	copy(local.VHTMCSSet[:], req.Msg.LocalVHTMCSSet)

	var (
		rateBps uint64
		mode    string
		err     error
	)
	switch {
	case local.VHTSupported && len(req.Msg.VHTCapabilities) > 0:
		mode = "vht"
		rateBps, err = band.EstimateVHTRxRate(local, req.Msg.VHTCapabilities, req.Msg.VHTOperation, req.Msg.HTCapabilities, req.Msg.HTOperation, req.Msg.RSSI)
	case local.HTSupported && len(req.Msg.HTCapabilities) > 0:
		mode = "ht"
		rateBps, err = band.EstimateHTRxRate(local, req.Msg.HTCapabilities, req.Msg.HTOperation, req.Msg.RSSI)
	default:
		mode = "non_ht"
		rateBps, err = band.EstimateNonHTRate(local, req.Msg.SupportedRates, req.Msg.ExtSupportedRates, req.Msg.RSSI)
	}
	if s.collector != nil {
		if err != nil {
			s.collector.RateEstimations.WithLabelValues(mode + "_failed").Inc()
		} else {
			s.collector.RateEstimations.WithLabelValues(mode).Inc()
		}
	}
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&EstimateRateResponse{RateBps: rateBps, Mode: mode}), nil
}

// TriggerFTTransition begins a roaming attempt toward AA: it opens an
// ft.Engine attempt, fills in the target-BSS context from the request, and
// renders the FT authentication request IEs a caller places on the air.
func (s *StationServer) TriggerFTTransition(ctx context.Context, req *connect.Request[TriggerFTTransitionRequest]) (*connect.Response[TriggerFTTransitionResponse], error) {
	const op = "server.TriggerFTTransition"
	s.logger.InfoContext(ctx, "TriggerFTTransition called", slog.String("aa", req.Msg.AA))

	if !s.cfg.FT.Enabled {
		return nil, wsderr.New(wsderr.KindNotApplicable, op, nil)
	}
	aa, err := net.ParseMAC(req.Msg.AA)
	if err != nil {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, err)
	}

	a, err := s.engine.Begin(req.Msg.Ifindex, aa)
	if err != nil {
		return nil, err
	}
	a.MDE = req.Msg.MDE
	a.R0KHID = req.Msg.R0KHID
	if a.R0KHID == "" {
		a.R0KHID = s.cfg.FT.R0KHID
	}
	a.MICLen = req.Msg.MICLen
	if a.MICLen == 0 {
		a.MICLen = 16
	}
	a.SNonce = make([]byte, 32)
	if _, err := rand.Read(a.SNonce); err != nil {
		return nil, wsderr.New(wsderr.KindUnsupported, op, err)
	}

	// A request carrying the target's frequency asks for the full roam:
	// the runner queues the attempt onto the phy and transmits it
	// itself. Without one (or without a frequency) the handler renders
	// the request IEs for the caller to place on the air.
	if s.runner != nil && req.Msg.TargetFreq != 0 {
		if spa, err := net.ParseMAC(s.cfg.Station.MAC); err == nil {
			a.SPA = spa
		}
		a.TargetFreq = req.Msg.TargetFreq
		a.DSFreq = req.Msg.DSFreq
		a.OverDS = req.Msg.OverDS
		a.Onchannel = req.Msg.Onchannel
		if req.Msg.PrevBSSID != "" {
			if prev, err := net.ParseMAC(req.Msg.PrevBSSID); err == nil {
				a.PrevBSSID = prev
			}
		}
		if err := s.runner.Roam(a); err != nil {
			if s.collector != nil {
				s.collector.FTAttemptsTotal.WithLabelValues("rejected").Inc()
			}
			s.engine.Remove(a.Ifindex, a.AA)
			return nil, err
		}
		if s.collector != nil {
			s.collector.FTAttemptsTotal.WithLabelValues(a.State.String()).Inc()
		}
		return connect.NewResponse(&TriggerFTTransitionResponse{State: a.State.String()}), nil
	}

	ies, err := s.engine.BuildAuthRequest(a)
	if err != nil {
		if s.collector != nil {
			s.collector.FTAttemptsTotal.WithLabelValues("rejected").Inc()
		}
		s.engine.Remove(a.Ifindex, a.AA)
		return nil, err
	}
	if s.collector != nil {
		s.collector.FTAttemptsTotal.WithLabelValues(a.State.String()).Inc()
	}
	return connect.NewResponse(&TriggerFTTransitionResponse{State: a.State.String(), AuthRequestIEs: ies}), nil
}

// Listen opens addr for the control surface, a thin wrapper kept so
// cmd/gowsd doesn't need to import net directly.
func Listen(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
