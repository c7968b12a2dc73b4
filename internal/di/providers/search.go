package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/pagebound-server/internal/config"
	"github.com/listenupapp/pagebound-server/internal/logger"
	"github.com/listenupapp/pagebound-server/internal/search"
	"github.com/listenupapp/pagebound-server/internal/service"
)

// JournalIndexHandle wraps the journal index with shutdown capability.
type JournalIndexHandle struct {
	*search.JournalIndex
}

// Shutdown implements do.Shutdownable.
func (h *JournalIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideJournalIndex provides the bleve journal index.
func ProvideJournalIndex(i do.Injector) (*JournalIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.Open(search.Options{
		Path:   cfg.Data.SearchIndexPath(),
		Logger: log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Journal index initialized", "documents", docCount)

	return &JournalIndexHandle{JournalIndex: index}, nil
}

// ProvideJournalRebuilder provides the journal rebuilder.
func ProvideJournalRebuilder(i do.Injector) (*service.JournalRebuilder, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*JournalIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewJournalRebuilder(storeHandle.Store, indexHandle.JournalIndex, log.Logger), nil
}

// TriggerJournalRebuildIfNeeded rebuilds the journal index in the background
// when it is empty but readers have records, e.g. after a mapping change.
func TriggerJournalRebuildIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*JournalIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	rebuilder := do.MustInvoke[*service.JournalRebuilder](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	readers, err := storeHandle.ListReaderIDs(context.Background())
	if err != nil || len(readers) == 0 {
		return
	}

	log.Info("Journal index is empty but records exist, triggering rebuild",
		"reader_count", len(readers),
	)

	go func() {
		if _, err := rebuilder.Rebuild(context.Background()); err != nil {
			log.Error("Initial journal rebuild failed", "error", err)
		}
	}()
}
