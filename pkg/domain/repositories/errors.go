package repositories

import "errors"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrLocationNotFound = errors.New("location not found")
	ErrTransferNotFound = errors.New("transfer not found")
	ErrOrderNotFound    = errors.New("order not found")
)
