package apperror

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/railji/railji-backend/internal/validator"
)

const (
	pgUniqueViolation = "23505"
	pgInvalidTextRepr = "22P02"
)

// pgDetailKey extracts "field" and "value" from `Key (field)=(value) already exists.`
var pgDetailKey = regexp.MustCompile(`Key \(([^)]+)\)=\(([^)]*)\)`)

// Classifier maps raw failures into the application error taxonomy and logs
// each failure exactly once, at the point it is classified.
type Classifier struct {
	log zerolog.Logger
}

// NewClassifier creates a Classifier that logs through log.
func NewClassifier(log zerolog.Logger) *Classifier {
	return &Classifier{log: log.With().Str("component", "error_classifier").Logger()}
}

// Classify returns err as an *Error. label names the operation that failed
// and is attached to the log line. Already classified errors pass through
// untouched and are not logged again.
func (c *Classifier) Classify(label string, err error) error {
	if err == nil {
		return nil
	}
	if ae, ok := As(err); ok {
		return ae
	}

	classified := classify(label, err)

	evt := c.log.Warn()
	if classified.Kind == KindInternal {
		evt = c.log.Error()
	}
	evt.Err(err).
		Str("context", label).
		Str("kind", string(classified.Kind)).
		Str("field", classified.Field).
		Msg(classified.Message)

	return classified
}

func classify(label string, err error) *Error {
	// Duplicate key.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		field, value := duplicateField(pgErr)
		e := Wrap(KindConflict, err, "%s already exists", describe(field, value))
		e.Field = field
		return e
	}
	var dupErr *DuplicateKeyError
	if errors.As(err, &dupErr) {
		e := Wrap(KindConflict, err, "%s already exists", describe(dupErr.Field, dupErr.Value))
		e.Field = dupErr.Field
		return e
	}

	// Shape validation.
	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		return Wrap(KindBadRequest, err, "%s", strings.Join(validator.Messages(ve), ", "))
	}
	var vs Violations
	if errors.As(err, &vs) {
		return Wrap(KindBadRequest, err, "%s", strings.Join(vs.Violations(), ", "))
	}

	// Casts.
	var castErr *CastError
	if errors.As(err, &castErr) {
		e := Wrap(KindBadRequest, err, "invalid %s: %q", castErr.Field, castErr.Value)
		e.Field = castErr.Field
		return e
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return Wrap(KindBadRequest, err, "invalid %s: %q", label, numErr.Num)
	}
	if pgErr != nil && pgErr.Code == pgInvalidTextRepr {
		return Wrap(KindBadRequest, err, "%s", pgErr.Message)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return Wrap(KindNotFound, err, "%s: not found", label)
	}

	return Wrap(KindInternal, err, "%s", err.Error())
}

// duplicateField names the column behind a unique violation, preferring the
// detail text and falling back to the constraint name.
func duplicateField(pgErr *pgconn.PgError) (string, string) {
	if m := pgDetailKey.FindStringSubmatch(pgErr.Detail); m != nil {
		return m[1], m[2]
	}
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName, ""
	}
	name := strings.TrimSuffix(pgErr.ConstraintName, "_key")
	if pgErr.TableName != "" {
		name = strings.TrimPrefix(name, pgErr.TableName+"_")
	}
	return name, ""
}

func describe(field, value string) string {
	if value == "" {
		return fmt.Sprintf("a record with the same %s", field)
	}
	return fmt.Sprintf("%s %q", field, value)
}
