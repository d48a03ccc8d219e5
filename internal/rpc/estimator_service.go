// Package rpc exposes the estimator and body store over gRPC.
package rpc

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/aero-overlay/core"
	"github.com/signalsfoundry/aero-overlay/internal/logging"
	"github.com/signalsfoundry/aero-overlay/internal/scenario"
	"github.com/signalsfoundry/aero-overlay/kb"
)

// EstimatorService implements EstimatorServer on top of a shared Estimator
// and BodyStore.
type EstimatorService struct {
	store     *kb.BodyStore
	estimator *core.Estimator
	log       logging.Logger
}

// NewEstimatorService wires the service. A nil store serves inline
// evaluations only.
func NewEstimatorService(store *kb.BodyStore, estimator *core.Estimator, log logging.Logger) *EstimatorService {
	if log == nil {
		log = logging.Noop()
	}
	if estimator == nil {
		estimator = core.NewEstimator(log)
	}
	return &EstimatorService{
		store:     store,
		estimator: estimator,
		log:       log,
	}
}

var _ EstimatorServer = (*EstimatorService)(nil)

// Evaluate runs the estimator on an inline scenario document.
func (s *EstimatorService) Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sc, err := scenarioFromStruct(in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	out := s.evaluate(ctx, "", sc.Inputs())
	resp, err := OutputToStruct(out)
	return resp, ToStatusError(err)
}

// EvaluateBody evaluates a stored body, optionally advancing its animation
// by "elapsed_s" seconds.
func (s *EstimatorService) EvaluateBody(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureStore(); err != nil {
		return nil, err
	}
	id := stringField(in, "id")
	if id == "" {
		return nil, ToStatusError(fmt.Errorf("%w: id is required", ErrInvalidRequest))
	}
	elapsed, err := durationField(in, "elapsed_s")
	if err != nil {
		return nil, ToStatusError(err)
	}

	body, err := s.store.GetBody(id)
	if err != nil {
		s.logger(ctx).Warn(ctx, "evaluate unknown body", logging.String("body_id", id))
		return nil, ToStatusError(err)
	}

	out := s.evaluate(ctx, id, body.Scenario.InputsAt(elapsed))
	resp, err := OutputToStruct(out)
	if err != nil {
		return nil, ToStatusError(err)
	}
	resp.Fields["id"] = structpb.NewStringValue(id)
	resp.Fields["revision"] = structpb.NewNumberValue(float64(body.Revision))
	return resp, nil
}

// ListBodies returns {"bodies": [...]} ordered by ID.
func (s *EstimatorService) ListBodies(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureStore(); err != nil {
		return nil, err
	}
	bodies := s.store.ListBodies()
	items := make([]interface{}, 0, len(bodies))
	for _, b := range bodies {
		items = append(items, bodyToValue(b))
	}
	resp, err := structpb.NewStruct(map[string]interface{}{"bodies": items})
	return resp, ToStatusError(err)
}

// AddBody stores {"id": ..., "scenario": {...}}.
func (s *EstimatorService) AddBody(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureStore(); err != nil {
		return nil, err
	}
	id := stringField(in, "id")
	if id == "" {
		return nil, ToStatusError(fmt.Errorf("%w: id is required", ErrInvalidRequest))
	}
	sc, err := scenarioFromStruct(in.GetFields()["scenario"].GetStructValue())
	if err != nil {
		return nil, ToStatusError(err)
	}
	if sc.Name == "" {
		sc.Name = id
	}
	if err := s.store.AddBody(id, *sc); err != nil {
		return nil, ToStatusError(err)
	}

	body, err := s.store.GetBody(id)
	if err != nil {
		return nil, ToStatusError(err)
	}
	s.logger(ctx).Info(ctx, "body added",
		logging.String("body_id", id),
		logging.String("name", sc.Name),
	)
	resp, err := structpb.NewStruct(bodyToValue(body))
	return resp, ToStatusError(err)
}

// RemoveBody deletes {"id": ...}.
func (s *EstimatorService) RemoveBody(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureStore(); err != nil {
		return nil, err
	}
	id := stringField(in, "id")
	if id == "" {
		return nil, ToStatusError(fmt.Errorf("%w: id is required", ErrInvalidRequest))
	}
	if err := s.store.RemoveBody(id); err != nil {
		return nil, ToStatusError(err)
	}
	s.logger(ctx).Info(ctx, "body removed", logging.String("body_id", id))
	return &structpb.Struct{Fields: map[string]*structpb.Value{}}, nil
}

// LoadScenarios preloads scenario files into the store, keyed by scenario
// name.
func (s *EstimatorService) LoadScenarios(ctx context.Context, paths []string) error {
	if err := s.ensureStore(); err != nil {
		return err
	}
	for _, path := range paths {
		sc, err := scenario.LoadFile(path)
		if err != nil {
			return err
		}
		if err := s.store.AddBody(sc.Name, *sc); err != nil {
			return err
		}
		s.log.Info(ctx, "preloaded scenario",
			logging.String("path", path),
			logging.String("body_id", sc.Name),
		)
	}
	return nil
}

func (s *EstimatorService) evaluate(ctx context.Context, bodyID string, in core.Inputs) core.AeroOutput {
	triangles := 0
	if in.Mesh != nil {
		triangles = in.Mesh.TriangleCount()
	}
	ctx, span := StartChildSpan(ctx, "EstimatorService.evaluate", bodyID, attribute.Int("aero.triangles", triangles))
	defer span.End()
	return s.estimator.Evaluate(ctx, in)
}

func (s *EstimatorService) ensureStore() error {
	if s == nil || s.store == nil {
		return ToStatusError(fmt.Errorf("body store not configured"))
	}
	return nil
}

// logger prefers the request-scoped logger installed by the interceptor.
func (s *EstimatorService) logger(ctx context.Context) logging.Logger {
	if l := logging.LoggerFromContext(ctx); l != nil {
		return l
	}
	return s.log
}
