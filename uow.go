package uow

import "github.com/goliatone/go-uow/core"

type Config = core.Config

type JournalConfig = core.JournalConfig

type Option = core.Option

type TransactionScope = core.TransactionScope

type Datastore = core.Datastore
type Tx = core.Tx
type CommitJournal = core.CommitJournal

type Entity = core.Entity
type EntityDescriptor = core.EntityDescriptor
type Snapshotter = core.Snapshotter
type FieldWriter = core.FieldWriter
type GeneratedFieldApplier = core.GeneratedFieldApplier

type PendingChange = core.PendingChange
type ChangeKind = core.ChangeKind
type ChangeState = core.ChangeState
type ChangeOptions = core.ChangeOptions
type Criteria = core.Criteria
type RawQuery = core.RawQuery

type CommitOptions = core.CommitOptions
type CommitReceipt = core.CommitReceipt
type SaveConfig = core.SaveConfig
type RemoveConfig = core.RemoveConfig
type ScopePhase = core.ScopePhase

type HookType = core.HookType
type HookListener = core.HookListener
type HookRegistration = core.HookRegistration

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorMapper       = core.WithErrorMapper
	WithDatastore         = core.WithDatastore
	WithCommitJournal     = core.WithCommitJournal
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func New(cfg Config, opts ...Option) (*TransactionScope, error) {
	return core.NewTransactionScope(cfg, opts...)
}
