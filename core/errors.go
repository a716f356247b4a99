package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ScopeErrorBadInput  = "UOW_BAD_INPUT"
	ScopeErrorInvariant = "UOW_INVARIANT_VIOLATION"
	ScopeErrorDatastore = "UOW_DATASTORE_FAILED"
	ScopeErrorHook      = "UOW_HOOK_FAILED"
	ScopeErrorInternal  = "UOW_INTERNAL_ERROR"
)

// usageError reports a caller precondition violation at staging time,
// before any datastore interaction.
func usageError(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ScopeErrorBadInput)
}

func usageValidationError(field string, message string) error {
	return goerrors.NewValidation("uow: validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(ScopeErrorBadInput).
		WithSeverity(goerrors.SeverityError)
}

// invariantError marks a fatal dispatch-time violation; it aborts and
// rolls back the in-flight transaction.
func invariantError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ScopeErrorInvariant)
}

func dependencyError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ScopeErrorInternal)
}

// wrapDatastoreError keeps the collaborator failure reachable through
// errors.Is/As. Retry policy is the caller's responsibility.
func wrapDatastoreError(err error) error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, "uow: datastore operation failed").
		WithCode(http.StatusBadGateway).
		WithTextCode(ScopeErrorDatastore)
}

// wrapHookError is raised to the Commit caller after data has already
// durably committed; it never implies rollback.
func wrapHookError(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryOperation, "uow: after-commit hook failed").
		WithCode(http.StatusInternalServerError).
		WithTextCode(ScopeErrorHook)
}

type ErrorMapper func(err error) *goerrors.Error

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return ensureScopeErrorEnvelope(rich)
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureScopeErrorEnvelope(mapped)
}

func ensureScopeErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = scopeHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultScopeTextCode(err.Category)
	}
	return err
}

func scopeHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func defaultScopeTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ScopeErrorBadInput
	case goerrors.CategoryExternal:
		return ScopeErrorDatastore
	case goerrors.CategoryOperation:
		return ScopeErrorHook
	default:
		return ScopeErrorInternal
	}
}
