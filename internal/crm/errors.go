package crm

import "errors"

var (
	ErrUnknownBackend = errors.New("crm: unknown backend")
	ErrDealNotFound   = errors.New("crm: deal not found")
)
