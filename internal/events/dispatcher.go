package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/civicpulse/internal/clock"
	obslogger "github.com/smallbiznis/civicpulse/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const handlerGroup = `group:"event_handlers"`

type DispatcherParams struct {
	fx.In

	DB       *gorm.DB `optional:"true"`
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Handlers []Handler `group:"event_handlers"`
}

// Dispatcher records each event in the domain_events outbox and then runs the
// registered handlers in order. Handler failures are logged and never
// returned: the change that produced the event is already committed.
type Dispatcher struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	handlers []Handler
}

func NewDispatcher(p DispatcherParams) *Dispatcher {
	handlers := make([]Handler, 0, len(p.Handlers))
	for _, h := range p.Handlers {
		if h != nil {
			handlers = append(handlers, h)
		}
	}
	sort.SliceStable(handlers, func(i, j int) bool {
		return handlers[i].Order() < handlers[j].Order()
	})
	return &Dispatcher{
		db:       p.DB,
		log:      p.Log.Named("events.dispatcher"),
		genID:    p.GenID,
		clock:    p.Clock,
		handlers: handlers,
	}
}

func (d *Dispatcher) Publish(ctx context.Context, evt Event) {
	now := d.clock.Now()
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = now
	}
	if evt.Key == "" {
		evt.Key = ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	}

	log := obslogger.WithReport(obslogger.WithContext(ctx, d.log), evt.ReportID.String()).With(
		zap.String("event_type", string(evt.Type)),
		zap.String("event_key", evt.Key),
	)

	if err := d.record(ctx, evt); err != nil {
		log.Warn("failed to record domain event", zap.Error(err))
	}

	for _, h := range d.handlers {
		if err := d.run(ctx, h, evt); err != nil {
			log.Warn("event handler failed",
				zap.String("handler", h.Name()),
				zap.Error(err),
			)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, h Handler, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, evt)
}

func (d *Dispatcher) record(ctx context.Context, evt Event) error {
	if d.db == nil {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	var actorID any
	if evt.ActorID != 0 {
		actorID = evt.ActorID
	}
	return d.db.WithContext(ctx).Exec(
		`INSERT INTO domain_events (id, event_key, event_type, report_id, actor_id, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.genID.Generate(),
		evt.Key,
		string(evt.Type),
		evt.ReportID,
		actorID,
		datatypes.JSON(payload),
		evt.OccurredAt,
	).Error
}

// AsHandler annotates a handler constructor for the dispatcher's value group.
func AsHandler(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(Handler)),
		fx.ResultTags(handlerGroup),
	)
}

var Module = fx.Module("events",
	fx.Provide(
		fx.Annotate(NewDispatcher, fx.As(new(Publisher))),
	),
)
