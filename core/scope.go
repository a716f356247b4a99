package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

// TransactionScope owns an ordered queue of pending changes and a
// registry of post-commit hooks for the duration of one staging/commit
// cycle. It is not safe for concurrent mutation; staging operations
// and Commit are expected to run on one logical goroutine per
// instance.
type TransactionScope struct {
	config          Config
	logger          Logger
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	store           Datastore
	journal         CommitJournal

	phase   ScopePhase
	pending []PendingChange
	hooks   []HookRegistration
}

func NewTransactionScope(cfg Config, options ...Option) (*TransactionScope, error) {
	builder := defaultScopeBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("uow", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("uow"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, builder.errorMapper(err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, builder.errorMapper(err)
	}

	if builder.datastore == nil && builder.repositoryFactory != nil {
		if factory, ok := builder.repositoryFactory.(DatastoreFactory); ok {
			store, buildErr := factory.BuildDatastore(builder.persistenceClient)
			if buildErr != nil {
				return nil, builder.errorMapper(buildErr)
			}
			builder.datastore = store
		}
	}
	if builder.datastore == nil {
		return nil, dependencyError("core: datastore is required")
	}
	if builder.journal == nil && finalConfig.Journal.Enabled && builder.repositoryFactory != nil {
		if factory, ok := builder.repositoryFactory.(JournalFactory); ok {
			journal, buildErr := factory.BuildJournal(builder.persistenceClient)
			if buildErr != nil {
				return nil, builder.errorMapper(buildErr)
			}
			builder.journal = journal
		}
	}
	if !finalConfig.Journal.Enabled {
		builder.journal = nil
	}

	return &TransactionScope{
		config:          finalConfig,
		logger:          logger,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		store:           builder.datastore,
		journal:         builder.journal,
		phase:           PhaseStaging,
	}, nil
}

// Phase returns the scope's current lifecycle phase.
func (s *TransactionScope) Phase() ScopePhase {
	if s == nil {
		return PhaseStaging
	}
	return s.phase
}

// PendingCount reports how many changes are staged.
func (s *TransactionScope) PendingCount() int {
	if s == nil {
		return 0
	}
	return len(s.pending)
}

// Pending returns a copy of the staged queue for inspection.
func (s *TransactionScope) Pending() []PendingChange {
	if s == nil || len(s.pending) == 0 {
		return nil
	}
	out := make([]PendingChange, len(s.pending))
	copy(out, s.pending)
	return out
}

// AddRawQuery stages a raw statement for execution in submission order.
func (s *TransactionScope) AddRawQuery(text string, params ...any) error {
	if s == nil {
		return dependencyError("core: transaction scope is required")
	}
	if text == "" {
		return usageValidationError("text", "query text is required")
	}
	return s.stage(PendingChange{
		Kind: ChangeKindRawQuery,
		Raw:  RawQuery{Text: text, Params: params},
	})
}

// Add stages a single entity insert.
func (s *TransactionScope) Add(entity Entity) error {
	return s.stageEntity(entity, StateInsert, nil)
}

// AddCollection stages a whole-collection insert.
func (s *TransactionScope) AddCollection(entities []Entity) error {
	return s.stageBatch(entities, StateInsert)
}

// Update stages a single entity update.
func (s *TransactionScope) Update(entity Entity) error {
	return s.stageEntity(entity, StateUpdate, nil)
}

// UpdateCollection stages a collection update. When any member carries
// a non-empty snapshot diff the whole collection is staged as
// individual entity updates so each can use its own diff; otherwise
// the collection is staged as one whole-collection save.
func (s *TransactionScope) UpdateCollection(entities []Entity) error {
	if s == nil {
		return dependencyError("core: transaction scope is required")
	}
	if len(entities) == 0 {
		return usageValidationError("entities", "at least one entity is required")
	}
	if anyChangedFields(entities) {
		// Validate every member before queuing any so a rejected call
		// leaves nothing staged.
		changes := make([]PendingChange, 0, len(entities))
		for _, entity := range entities {
			if entity == nil {
				return usageValidationError("entities", "collection members must not be nil")
			}
			changes = append(changes, PendingChange{
				Kind:       ChangeKindEntity,
				State:      StateUpdate,
				Entity:     entity,
				Descriptor: entity.Descriptor(),
			})
		}
		return s.stageAll(changes)
	}
	return s.stageBatch(entities, StateUpdate)
}

// Delete stages a soft remove (semantic tombstone, reversible).
func (s *TransactionScope) Delete(entity Entity) error {
	return s.stageEntity(entity, StateDelete, nil)
}

// HardDelete stages a physical remove.
func (s *TransactionScope) HardDelete(entity Entity) error {
	return s.stageEntity(entity, StateHardDelete, nil)
}

func (s *TransactionScope) DeleteCollection(entities []Entity) error {
	return s.stageBatch(entities, StateDelete)
}

func (s *TransactionScope) HardDeleteCollection(entities []Entity) error {
	return s.stageBatch(entities, StateHardDelete)
}

// InsertWithCustomValues merges every literal value onto the entity's
// in-memory fields and stages a targeted insert of those values.
// Insert never accepts a targeting criteria.
func (s *TransactionScope) InsertWithCustomValues(entity Entity, options ChangeOptions) error {
	if s == nil {
		return dependencyError("core: transaction scope is required")
	}
	if !options.Criteria.IsZero() {
		return usageError("core: insert does not accept a targeting criteria")
	}
	merged, err := s.mergeCustomValues(entity, options)
	if err != nil {
		return err
	}
	return s.stageEntity(entity, StateInsert, &merged)
}

// UpdateWithCustomValues merges every literal value onto the entity's
// in-memory fields and stages a targeted update. A zero criteria
// matches by identity at dispatch time.
func (s *TransactionScope) UpdateWithCustomValues(entity Entity, options ChangeOptions) error {
	if s == nil {
		return dependencyError("core: transaction scope is required")
	}
	merged, err := s.mergeCustomValues(entity, options)
	if err != nil {
		return err
	}
	return s.stageEntity(entity, StateUpdate, &merged)
}

func (s *TransactionScope) mergeCustomValues(entity Entity, options ChangeOptions) (ChangeOptions, error) {
	if entity == nil {
		return ChangeOptions{}, usageValidationError("entity", "entity is required")
	}
	values := filterLiteralValues(options.Values)
	if len(values) == 0 {
		return ChangeOptions{}, usageValidationError("values", "at least one literal value is required")
	}
	writer, ok := entity.(FieldWriter)
	if !ok {
		return ChangeOptions{}, usageError("core: entity does not support field-level writes")
	}
	for key, value := range values {
		writer.SetField(key, value)
	}
	return ChangeOptions{Criteria: options.Criteria, Values: values}, nil
}

func (s *TransactionScope) stageEntity(entity Entity, state ChangeState, options *ChangeOptions) error {
	if s == nil {
		return dependencyError("core: transaction scope is required")
	}
	if entity == nil {
		return usageValidationError("entity", "entity is required")
	}
	return s.stage(PendingChange{
		Kind:       ChangeKindEntity,
		State:      state,
		Entity:     entity,
		Descriptor: entity.Descriptor(),
		Options:    options,
	})
}

func (s *TransactionScope) stageBatch(entities []Entity, state ChangeState) error {
	if s == nil {
		return dependencyError("core: transaction scope is required")
	}
	if len(entities) == 0 {
		return usageValidationError("entities", "at least one entity is required")
	}
	batch := make([]Entity, len(entities))
	for i, entity := range entities {
		if entity == nil {
			return usageValidationError("entities", "collection members must not be nil")
		}
		batch[i] = entity
	}
	return s.stage(PendingChange{
		Kind:       ChangeKindBatch,
		State:      state,
		Batch:      batch,
		Descriptor: batch[0].Descriptor(),
	})
}

func (s *TransactionScope) stage(change PendingChange) error {
	if s.phase == PhaseCommitting {
		return usageError("core: cannot stage changes while a commit is in flight")
	}
	s.pending = append(s.pending, change)
	return nil
}

// stageAll appends every change or none of them.
func (s *TransactionScope) stageAll(changes []PendingChange) error {
	if s.phase == PhaseCommitting {
		return usageError("core: cannot stage changes while a commit is in flight")
	}
	s.pending = append(s.pending, changes...)
	return nil
}

func anyChangedFields(entities []Entity) bool {
	for _, entity := range entities {
		snap, ok := entity.(Snapshotter)
		if ok && len(snap.ChangedFields()) > 0 {
			return true
		}
	}
	return false
}
