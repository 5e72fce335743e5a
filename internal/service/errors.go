package service

import "errors"

var (
	ErrConfirmationPending  = errors.New("another confirmation is still pending")
	ErrConfirmationResolved = errors.New("confirmation already answered")
	ErrEmptyBarcode         = errors.New("barcode is required")
)
