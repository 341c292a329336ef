package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the stores translate.
const (
	codeInvalidSchemaName = "3F000"
	codeUndefinedTable    = "42P01"
	codeDuplicateSchema   = "42P06"
	codeDuplicateTable    = "42P07"
	codeUniqueViolation   = "23505"
)

// mapError translates pgx errors into store sentinels, keeping the original
// error in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeInvalidSchemaName:
			return fmt.Errorf("%w: %w", ErrNamespaceNotFound, err)
		case codeUndefinedTable:
			return fmt.Errorf("%w: %w", ErrTableNotFound, err)
		case codeDuplicateSchema, codeDuplicateTable, codeUniqueViolation:
			return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
		}
	}
	return err
}

// mapCatalogError is mapError for statements against a namespace's catalog
// tables, which exist exactly when the namespace was provisioned.
func mapCatalogError(err error) error {
	err = mapError(err)
	if errors.Is(err, ErrTableNotFound) {
		return fmt.Errorf("%w: %w", ErrNamespaceNotFound, err)
	}
	return err
}

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeDuplicateSchema, codeDuplicateTable, codeUniqueViolation:
		return true
	}
	return false
}
