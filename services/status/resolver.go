package status

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("casetrack.services.status")

// ErrNoStatus is returned when every strategy in the chain was
// exhausted without producing a record.
var ErrNoStatus = fmt.Errorf("no strategy produced a status record")

// Strategy is one way of acquiring a status record. Returning
// (nil, nil) means "nothing found here, try the next one"; an error
// means the attempt itself broke, which the resolver also treats as
// fall-through.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, c Case) (*Record, error)
}

// Resolver walks a prioritized strategy chain and returns the first
// structured record any strategy produces.
type Resolver struct {
	strategies []Strategy
}

func NewResolver(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// Resolve short-circuits on the first strategy that yields a record.
// Strategy failures never abort the chain; only full exhaustion is an
// error.
func (r *Resolver) Resolve(ctx context.Context, c Case) (*Record, error) {
	ctx, span := tracer.Start(ctx, "Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("case_number", c.Number))

	for _, strategy := range r.strategies {
		record, err := r.attempt(ctx, strategy, c)
		if err != nil {
			slog.WarnContext(
				ctx, "strategy failed, falling through",
				"strategy", strategy.Name(),
				"err", err,
			)
			continue
		}
		if record == nil {
			slog.DebugContext(ctx, "strategy produced nothing", "strategy", strategy.Name())
			continue
		}

		if record.Method == "" {
			record.Method = strategy.Name()
		}
		if record.EmployerName == "" {
			record.EmployerName = c.EmployerName
		}
		slog.InfoContext(
			ctx, "resolved case status",
			"strategy", strategy.Name(),
			"status", record.Status,
		)
		return record, nil
	}

	span.SetStatus(codes.Error, ErrNoStatus.Error())
	return nil, ErrNoStatus
}

func (r *Resolver) attempt(ctx context.Context, strategy Strategy, c Case) (record *Record, err error) {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("attempt:%s", strategy.Name()))
	defer span.End()

	record, err = strategy.Attempt(ctx, c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "strategy attempt failed")
	}
	return record, err
}
