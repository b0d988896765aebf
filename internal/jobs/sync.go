package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/troikatech/voicehub/pkg/logger"
	"github.com/troikatech/voicehub/pkg/mongo"
	"github.com/troikatech/voicehub/pkg/otel"
	"github.com/troikatech/voicehub/pkg/providers"
)

const callsCollection = "calls"

// CallStore persists normalized calls keyed by (provider, external_id).
type CallStore interface {
	UpsertCall(ctx context.Context, call *providers.NormalizedCall) error
}

// MongoCallStore is the production CallStore.
type MongoCallStore struct {
	client *mongo.Client
}

func NewMongoCallStore(client *mongo.Client) *MongoCallStore {
	return &MongoCallStore{client: client}
}

func (s *MongoCallStore) UpsertCall(ctx context.Context, call *providers.NormalizedCall) error {
	return otel.WithCollectionSpan(ctx, callsCollection, "UPDATE", func(ctx context.Context) error {
		return s.client.NewQuery(callsCollection).
			Eq("provider", string(call.Provider)).
			Eq("external_id", call.ExternalID).
			Upsert(ctx, call)
	})
}

// CallSyncJob periodically pulls recent calls from every connected vendor
// into the local call store. Webhooks are the primary feed; the sync job
// backfills deliveries that were missed or never configured.
type CallSyncJob struct {
	providers []providers.AgencyProvider
	store     CallStore
	interval  time.Duration
	limit     int
	logger    *zap.Logger
}

func NewCallSyncJob(agencyProviders []providers.AgencyProvider, store CallStore, interval time.Duration, limit int) *CallSyncJob {
	return &CallSyncJob{
		providers: agencyProviders,
		store:     store,
		interval:  interval,
		limit:     limit,
		logger:    logger.Log,
	}
}

// Run blocks until ctx is cancelled, syncing once immediately and then on
// every tick.
func (j *CallSyncJob) Run(ctx context.Context) {
	j.logger.Info("Call sync job started",
		zap.Duration("interval", j.interval),
		zap.Int("providers", len(j.providers)),
	)

	j.SyncOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("Call sync job stopped")
			return
		case <-ticker.C:
			j.SyncOnce(ctx)
		}
	}
}

// SyncOnce pulls one page of recent calls per provider. A failing provider
// is logged and skipped so the others still sync. Returns the number of
// calls stored.
func (j *CallSyncJob) SyncOnce(ctx context.Context) int {
	synced := 0
	for _, ap := range j.providers {
		page, err := ap.Client.ListCalls(ctx, providers.ListCallsParams{
			Limit:          j.limit,
			SortDescending: true,
		})
		if err != nil {
			j.logger.Warn("Call sync failed for provider",
				zap.String("provider", string(ap.Provider)),
				zap.Error(err),
			)
			continue
		}

		for i := range page.Calls {
			if err := j.store.UpsertCall(ctx, &page.Calls[i]); err != nil {
				j.logger.Error("Failed to store synced call",
					zap.String("provider", string(ap.Provider)),
					zap.String("call_id", page.Calls[i].ExternalID),
					zap.Error(err),
				)
				continue
			}
			synced++
		}

		j.logger.Debug("Provider sync complete",
			zap.String("provider", string(ap.Provider)),
			zap.Int("calls", len(page.Calls)),
		)
	}
	return synced
}
