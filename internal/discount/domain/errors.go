package domain

import "errors"

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidKind         = errors.New("invalid_discount_kind")
	ErrInvalidValue        = errors.New("invalid_discount_value")
	ErrNotFound            = errors.New("not_found")
)
