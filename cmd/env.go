package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/Kaiman22/autonomy-explorer/internal/engine"
	"github.com/Kaiman22/autonomy-explorer/internal/ingest"
	"github.com/Kaiman22/autonomy-explorer/internal/model"
	"github.com/Kaiman22/autonomy-explorer/internal/store"
)

// env bundles the loaded dataset and the open store for one command run.
type env struct {
	dataset *ingest.Dataset
	store   store.Store
}

func initEnv(ctx context.Context) (*env, error) {
	ds, err := ingest.Load(cfg.Data.Dir)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	return &env{dataset: ds, store: st}, nil
}

func (e *env) Close() {
	if e.store != nil {
		_ = e.store.Close()
	}
}

// openStoreOnly opens the store without loading the dataset, for commands
// that never score.
func openStoreOnly(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "store migrate")
	}
	return st, nil
}

// scoringInput assembles the engine input including stored custom
// references and their synthesized times.
func (e *env) scoringInput(ctx context.Context, p model.Params, refs []model.Reference) (engine.Input, error) {
	in := engine.Input{Areas: e.dataset.Areas, Builtin: refs, Params: p}

	custom, err := e.store.ListReferences(ctx)
	if err != nil {
		return engine.Input{}, err
	}
	if len(custom) == 0 {
		return in, nil
	}
	in.Custom = custom

	merged := e.dataset.Areas
	for _, ref := range custom {
		drive, pt, err := e.store.GetReferenceTimes(ctx, ref.ID)
		if err != nil {
			return engine.Input{}, err
		}
		if drive == nil && pt == nil {
			continue
		}
		merged = ingest.MergeReferenceTimes(merged, ref.ID, drive, pt)
	}
	in.Areas = merged
	return in, nil
}
