package services

import "errors"

// Error taxonomy untuk core service. Controller yang menerjemahkan
// ke HTTP status code; service hanya mengembalikan terminal failure
// tanpa partial side effect.
var (
	// ErrNotFound: table/order/restaurant tidak ditemukan.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized: tidak ada sesi aktif atau token tidak cocok.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionExpired: sesi sudah melewati timeout restoran.
	ErrSessionExpired = errors.New("session expired")

	// ErrConflict: state transisi salah, restoran tutup, atau nomor meja duplikat.
	ErrConflict = errors.New("conflict")

	// ErrRateLimited: burst request melebihi limit fixed-window.
	ErrRateLimited = errors.New("rate limited")

	// ErrValidation: quantity invalid, cart kosong, atau referensi menu/modifier tidak dikenal.
	ErrValidation = errors.New("validation failed")
)
