package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// StartSync schedules the periodic refresh of cached external events and
// returns the running scheduler. A failed refresh for one organisation is
// logged and skipped, never fatal.
func (a *App) StartSync() (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(a.Cfg.Sync.Cron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		a.RefreshExternalEvents(ctx)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	a.Log.Info().Str("schedule", a.Cfg.Sync.Cron).Msg("external event sync started")
	return c, nil
}

// RefreshExternalEvents re-fetches the upcoming event window for every
// connected integration and swaps the cache.
func (a *App) RefreshExternalEvents(ctx context.Context) {
	integrations, err := a.ListIntegrations(ctx, ProviderGoogle)
	if err != nil {
		a.Log.Error().Err(err).Msg("list integrations for sync failed")
		return
	}

	now := time.Now().UTC()
	timeMin := now.Format(time.RFC3339)
	timeMax := now.AddDate(0, 0, a.Cfg.Sync.HorizonDays).Format(time.RFC3339)

	for i := range integrations {
		in := &integrations[i]
		events, err := a.fetchGoogleEvents(ctx, in, timeMin, timeMax)
		if err != nil {
			a.Log.Warn().Err(err).Str("organisation_id", in.OrganisationID).Msg("external event fetch failed")
			continue
		}

		cached := make([]ExternalEvent, 0, len(events))
		for _, ev := range events {
			if ev.StartTime.IsZero() || ev.EndTime.IsZero() {
				continue
			}
			cached = append(cached, ExternalEvent{
				OrganisationID: in.OrganisationID,
				Provider:       in.Provider,
				EventID:        ev.ID,
				Summary:        ev.Summary,
				Location:       ev.Location,
				StartAt:        ev.StartTime,
				EndAt:          ev.EndTime,
				Status:         ev.Status,
			})
		}
		if err := a.ReplaceExternalEvents(ctx, in.OrganisationID, in.Provider, cached); err != nil {
			a.Log.Warn().Err(err).Str("organisation_id", in.OrganisationID).Msg("external event cache swap failed")
			continue
		}
		a.Log.Debug().Str("organisation_id", in.OrganisationID).Int("events", len(cached)).Msg("external events refreshed")
	}
}
